package analysis_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/spectrasim/internal/analysis"
	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/integrators"
	"github.com/san-kum/spectrasim/internal/models"
	"github.com/san-kum/spectrasim/internal/sim"
)

// decayingPhoton builds a two-mode trajectory with n11 = exp(-G t) and an
// uncoupled, empty exciton.
func decayingPhoton(g, dt, end float64) (*models.Params, *dynamo.Trajectory) {
	p, err := models.NewParams(models.Modes{
		Photons: []models.Mode{{EnergyEV: 1.0, DampingEV: g}},
	})
	Expect(err).NotTo(HaveOccurred())

	grid, err := dynamo.NewTimeGrid(dt, end)
	Expect(err).NotTo(HaveOccurred())

	traj := &dynamo.Trajectory{Grid: grid, Modes: 2, States: make([]dynamo.State, grid.Len())}
	for k, t := range grid.Times {
		traj.States[k] = dynamo.DiagonalState([]float64{0, math.Exp(-g * t)})
	}
	return p, traj
}

var _ = Describe("Emission", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("produces a Lorentzian centered on the photon energy", func() {
		const gain = 0.1
		p, traj := decayingPhoton(gain, 0.05, 200)
		energies, err := dynamo.NewEnergyGrid(0.5, 0.01, 1.5)
		Expect(err).NotTo(HaveOccurred())

		spec, err := analysis.Emission(ctx, p, traj, energies, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(spec.Values).To(HaveLen(101))
		Expect(spec.Correlation).To(HaveLen(traj.Len()))

		energy, peak := spec.Peak()
		Expect(energy).To(BeNumerically("~", 1.0, 1e-9))
		Expect(peak).To(BeNumerically("~", 2/(math.Pi*gain), 0.01*2/(math.Pi*gain)))

		// half width at half maximum is G/2
		intensity := spec.Intensity()
		for i, e := range energies.Energies {
			d := e - 1
			want := (gain / 2) / (math.Pi * (gain*gain/4 + d*d))
			Expect(intensity[i]).To(BeNumerically("~", want, 0.01*peak), "E=%g", e)
		}
	})

	It("ends the energy grid exactly at the maximum", func() {
		p, traj := decayingPhoton(0.1, 0.1, 50)
		energies, err := dynamo.NewEnergyGrid(0.9, 0.003, 1.1)
		Expect(err).NotTo(HaveOccurred())

		spec, err := analysis.Emission(ctx, p, traj, energies, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(spec.Grid.Energies[len(spec.Grid.Energies)-1]).To(Equal(1.1))
		Expect(spec.Values).To(HaveLen(int(math.Floor(0.2/0.003+1e-9)) + 1))
	})

	It("reports progress once per energy sample", func() {
		p, traj := decayingPhoton(0.1, 0.5, 20)
		energies, err := dynamo.NewEnergyGrid(0, 0.1, 2)
		Expect(err).NotTo(HaveOccurred())

		var reports []float64
		_, err = analysis.Emission(ctx, p, traj, energies, func(pct float64) { reports = append(reports, pct) })
		Expect(err).NotTo(HaveOccurred())
		Expect(reports).To(HaveLen(energies.Len()))
		Expect(reports[len(reports)-1]).To(Equal(100.0))
		for i := 1; i < len(reports); i++ {
			Expect(reports[i]).To(BeNumerically(">", reports[i-1]))
		}
	})

	It("fails with a SpectraError when no photon is ever present", func() {
		p, traj := decayingPhoton(0.1, 0.5, 20)
		for k := range traj.States {
			traj.States[k] = dynamo.DiagonalState([]float64{1, 0})
		}
		energies, _ := dynamo.NewEnergyGrid(0, 0.1, 2)

		spec, err := analysis.Emission(ctx, p, traj, energies, nil)
		Expect(spec).To(BeNil())
		Expect(err).To(MatchError(dynamo.ErrZeroNormalization))
		Expect(err).To(BeAssignableToTypeOf(&dynamo.SpectraError{}))
	})

	It("rejects an empty trajectory", func() {
		p, _ := decayingPhoton(0.1, 0.5, 20)
		energies, _ := dynamo.NewEnergyGrid(0, 0.1, 2)
		_, err := analysis.Emission(ctx, p, &dynamo.Trajectory{Modes: 2}, energies, nil)
		Expect(err).To(MatchError(dynamo.ErrNoTrajectory))
	})

	It("stops when the context is canceled", func() {
		p, traj := decayingPhoton(0.1, 0.5, 20)
		energies, _ := dynamo.NewEnergyGrid(0, 0.1, 2)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := analysis.Emission(canceled, p, traj, energies, nil)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("splits the strongly coupled line into two polariton peaks", func() {
		const g = 0.05
		p, err := models.NewParams(models.Modes{
			Exciton: models.Mode{EnergyEV: 1.0, DampingEV: 0.01, Initial: 1},
			Photons: []models.Mode{{EnergyEV: 1.0, DampingEV: 0.01, StrengthEV: g}},
		})
		Expect(err).NotTo(HaveOccurred())
		grid, err := dynamo.NewTimeGrid(0.5, 600)
		Expect(err).NotTo(HaveOccurred())

		res, err := sim.New(integrators.DefaultOptions(), nil).Run(ctx, models.NewPolariton(p), grid)
		Expect(err).NotTo(HaveOccurred())

		energies, err := dynamo.NewEnergyGrid(0.9, 0.001, 1.1)
		Expect(err).NotTo(HaveOccurred())
		spec, err := analysis.Emission(ctx, p, res.Trajectory, energies, nil)
		Expect(err).NotTo(HaveOccurred())

		intensity := spec.Intensity()
		value := func(e float64) float64 {
			return intensity[int(math.Round((e-0.9)/0.001))]
		}
		Expect(value(1 - g)).To(BeNumerically(">", 2*value(1.0)))
		Expect(value(1 + g)).To(BeNumerically(">", 2*value(1.0)))
	})
})

var _ = Describe("DominantFrequency", func() {
	It("finds twice the coupling in Rabi populations", func() {
		const g = 0.5
		dt := 0.05
		series := make([]float64, 4096)
		for i := range series {
			c := math.Cos(g * float64(i) * dt)
			series[i] = c * c
		}
		resolution := 2 * math.Pi / (float64(len(series)) * dt)
		Expect(analysis.DominantFrequency(series, dt)).To(BeNumerically("~", 2*g, resolution))
	})

	It("is zero for a constant series", func() {
		Expect(analysis.DominantFrequency([]float64{3, 3, 3, 3}, 1)).To(BeZero())
		Expect(analysis.DominantFrequency([]float64{1}, 1)).To(BeZero())
	})
})

var _ = Describe("PopulationPortrait", func() {
	It("pairs mode occupations and renders them", func() {
		_, traj := decayingPhoton(0.1, 1, 10)
		portrait := analysis.PopulationPortrait(traj, 0, 1)
		Expect(portrait.Points).To(HaveLen(traj.Len()))
		Expect(portrait.Points[0]).To(Equal(analysis.Point{X: 0, Y: 1}))

		art := portrait.ToASCII(20, 5)
		Expect(art).To(ContainSubstring("•"))
		Expect(analysis.PopulationPortrait(traj, 0, 2)).To(BeNil())
	})
})

package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/spectrasim/internal/config"
	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/integrators"
	"github.com/san-kum/spectrasim/internal/metrics"
	"github.com/san-kum/spectrasim/internal/models"
	"github.com/san-kum/spectrasim/internal/sim"
	"gonum.org/v1/gonum/mat"
)

func rabiModel() *models.Polariton {
	p, err := models.NewParams(models.Modes{
		Exciton: models.Mode{Initial: 1},
		Photons: []models.Mode{{StrengthEV: 1}},
	})
	Expect(err).NotTo(HaveOccurred())
	return models.NewPolariton(p)
}

func mustGrid(step, end float64) dynamo.TimeGrid {
	grid, err := dynamo.NewTimeGrid(step, end)
	Expect(err).NotTo(HaveOccurred())
	return grid
}

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Rabi oscillation", func() {
		It("follows cos² and sin² over several periods", func() {
			grid := mustGrid(0.05, 4*math.Pi)
			res, err := sim.New(integrators.DefaultOptions(), nil).Run(ctx, rabiModel(), grid)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Trajectory.Len()).To(Equal(grid.Len()))

			exciton := res.Trajectory.Population(0)
			photon := res.Trajectory.Population(1)
			for k, t := range grid.Times {
				c := math.Cos(t)
				Expect(exciton[k]).To(BeNumerically("~", c*c, 1e-5), "t=%g", t)
				Expect(photon[k]).To(BeNumerically("~", 1-c*c, 1e-5), "t=%g", t)
			}
		})

		DescribeTable("agrees across solver methods",
			func(method integrators.Method, maxStep float64) {
				opts := integrators.DefaultOptions()
				opts.Method = method
				opts.MaxStep = maxStep
				grid := mustGrid(0.1, 2*math.Pi)

				res, err := sim.New(opts, nil).Run(ctx, rabiModel(), grid)
				Expect(err).NotTo(HaveOccurred())
				last := res.Trajectory.Population(0)[grid.Len()-1]
				c := math.Cos(grid.End())
				Expect(last).To(BeNumerically("~", c*c, 1e-3))
			},
			Entry("auto", integrators.MethodAuto, 0.0),
			Entry("dopri5", integrators.MethodDopri5, 0.0),
			Entry("rodas3", integrators.MethodRodas3, 0.0),
			Entry("rk4", integrators.MethodRK4, 0.01),
		)
	})

	Describe("invariants", func() {
		var p *models.Params

		BeforeEach(func() {
			var err error
			p, err = models.NewParams(models.Modes{
				Exciton: models.Mode{EnergyEV: 1.0, Initial: 1},
				Photons: []models.Mode{
					{EnergyEV: 1.1, StrengthEV: 0.3, Initial: 0.2},
					{EnergyEV: 0.9, StrengthEV: 0.2, Initial: 0.5},
				},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("conserves the total population without damping or pumping", func() {
			s := sim.New(integrators.DefaultOptions(), nil)
			drift := metrics.NewPopulationDrift()
			s.AddMetric(drift)

			res, err := s.Run(ctx, models.NewPolariton(p), mustGrid(0.1, 30))
			Expect(err).NotTo(HaveOccurred())

			total0 := res.Trajectory.States[0].Total()
			Expect(total0).To(BeNumerically("~", 1.7, 1e-12))
			for _, x := range res.Trajectory.States {
				Expect(x.Total()).To(BeNumerically("~", total0, 1e-6))
			}
			Expect(res.Metrics).To(HaveKeyWithValue("population_drift", BeNumerically("<", 1e-6)))
		})

		It("grows the total population linearly under balanced pumping", func() {
			modes := models.Modes{
				Exciton: models.Mode{EnergyEV: 1.0, DampingEV: 0.02, PumpingEV: 0.02, Initial: 1},
				Photons: []models.Mode{{EnergyEV: 1.05, DampingEV: 0.01, PumpingEV: 0.01, StrengthEV: 0.2}},
			}
			q, err := models.NewParams(modes)
			Expect(err).NotTo(HaveOccurred())

			res, err := sim.New(integrators.DefaultOptions(), nil).Run(ctx, models.NewPolariton(q), mustGrid(0.5, 20))
			Expect(err).NotTo(HaveOccurred())
			for k, t := range res.Trajectory.Grid.Times {
				Expect(res.Trajectory.States[k].Total()).To(BeNumerically("~", 1+0.03*t, 1e-6))
			}
		})

		It("keeps every state Hermitian", func() {
			s := sim.New(integrators.DefaultOptions(), nil)
			s.AddMetric(metrics.NewHermitianResidual())
			res, err := s.Run(ctx, models.NewPolariton(p), mustGrid(0.2, 10))
			Expect(err).NotTo(HaveOccurred())

			for _, x := range res.Trajectory.States {
				Expect(x.HermitianResidual()).To(BeZero())
			}
			Expect(res.Metrics["hermitian_residual"]).To(BeNumerically("<", 1e-12))
		})

		It("starts from the diagonal initial state", func() {
			res, err := sim.New(integrators.DefaultOptions(), nil).Run(ctx, models.NewPolariton(p), mustGrid(1, 2))
			Expect(err).NotTo(HaveOccurred())
			first := res.Trajectory.States[0]
			Expect(first.Populations()).To(Equal([]float64{1, 0.2, 0.5}))
			Expect(first.At(0, 1)).To(BeZero())
		})
	})

	Describe("progress", func() {
		It("reports percent complete up to 100", func() {
			var reports []float64
			s := sim.New(integrators.DefaultOptions(), nil)
			s.OnProgress(func(p float64) { reports = append(reports, p) })

			res, err := s.Run(ctx, rabiModel(), mustGrid(0.1, 5))
			Expect(err).NotTo(HaveOccurred())
			Expect(reports).To(HaveLen(res.Stats.Evaluations + 1))
			for _, r := range reports {
				Expect(r).To(BeNumerically(">=", 0))
				Expect(r).To(BeNumerically("<=", 100))
			}
			Expect(reports[len(reports)-1]).To(Equal(100.0))
		})
	})

	Describe("strong exciton damping", func() {
		run := func(method integrators.Method, dampingEV float64) *sim.Result {
			cfg := config.DefaultConfig()
			end := 0.05
			cfg.ExcitonicMode.DampingEV = &dampingEV
			cfg.Dynamic.TimeEndPs = &end
			p, err := models.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			grid, err := cfg.TimeGrid()
			Expect(err).NotTo(HaveOccurred())

			opts := integrators.DefaultOptions()
			opts.Method = method
			res, err := sim.New(opts, nil).Run(ctx, models.NewPolariton(p), grid)
			Expect(err).NotTo(HaveOccurred())
			return res
		}

		DescribeTable("rodas3 stays within the default step budget",
			func(dampingEV float64) {
				stiff := run(integrators.MethodRodas3, dampingEV)
				ref := run(integrators.MethodDopri5, dampingEV)

				Expect(stiff.Stats.LastMethod).To(Equal(integrators.MethodRodas3))
				a, b := stiff.Trajectory.Population(0), ref.Trajectory.Population(0)
				for k := range a {
					Expect(a[k]).To(BeNumerically("~", b[k], 1e-6), "sample %d", k)
				}
				steady := 0.001 / (dampingEV - 0.001)
				Expect(a[len(a)-1]).To(BeNumerically(">", 0))
				if dampingEV >= 10 {
					Expect(a[len(a)-1]).To(BeNumerically("~", steady, 1e-6))
				}
			},
			Entry("0.5 eV", 0.5),
			Entry("2 eV", 2.0),
			Entry("10 eV", 10.0),
			Entry("50 eV", 50.0),
		)
	})

	Describe("failures", func() {
		It("surfaces step budget exhaustion with the last reached time", func() {
			opts := integrators.DefaultOptions()
			opts.Method = integrators.MethodDopri5
			opts.MaxSteps = 1

			res, err := sim.New(opts, nil).Run(ctx, rabiModel(), mustGrid(5, 20))
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(dynamo.ErrStepBudget))

			var ie *dynamo.IntegrationError
			Expect(err).To(BeAssignableToTypeOf(ie))
			ie = err.(*dynamo.IntegrationError)
			Expect(ie.Time).To(BeNumerically(">=", 0))
			Expect(ie.Time).To(BeNumerically("<", 5))
		})

		It("stops when the context is canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := sim.New(integrators.DefaultOptions(), nil).Run(canceled, rabiModel(), mustGrid(0.1, 5))
			Expect(err).To(MatchError(context.Canceled))
		})

		It("rejects a user-supplied jacobian before integrating", func() {
			opts := integrators.DefaultOptions()
			opts.Jacobian = func(float64, []float64, *mat.Dense) {}

			_, err := sim.New(opts, nil).Run(ctx, rabiModel(), mustGrid(0.1, 1))
			var cfgErr *dynamo.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(err).To(MatchError(dynamo.ErrJacobianUnsupported))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs every variant and keeps results in order", func() {
		var variants []integrators.Options
		for _, m := range []integrators.Method{integrators.MethodDopri5, integrators.MethodRodas3} {
			opts := integrators.DefaultOptions()
			opts.Method = m
			variants = append(variants, opts)
		}
		failing := integrators.DefaultOptions()
		failing.MaxSteps = 1
		variants = append(variants, failing)

		grid := mustGrid(0.5, 3)
		results, errs := sim.NewEnsemble(nil, metrics.Standard).Run(context.Background(), rabiModel(), grid, variants)
		Expect(results).To(HaveLen(3))

		Expect(errs[0]).NotTo(HaveOccurred())
		Expect(errs[1]).NotTo(HaveOccurred())
		Expect(errs[2]).To(MatchError(dynamo.ErrStepBudget))

		Expect(results[0].Stats.LastMethod).To(Equal(integrators.MethodDopri5))
		Expect(results[1].Stats.LastMethod).To(Equal(integrators.MethodRodas3))
		Expect(results[0].Metrics).To(HaveKey("peak_photon_population"))

		a := results[0].Trajectory.Population(1)
		b := results[1].Trajectory.Population(1)
		for k := range a {
			Expect(a[k]).To(BeNumerically("~", b[k], 1e-3))
		}
	})
})

package experiment_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/spectrasim/internal/config"
	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/experiment"
	"github.com/san-kum/spectrasim/internal/integrators"
)

var _ = Describe("Experiment", func() {
	var (
		ctx context.Context
		exp *experiment.Experiment
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		exp, err = experiment.New(config.GetPreset("rabi"), nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("builds parameters and grids from the configuration", func() {
		Expect(exp.Params().N).To(Equal(2))
		Expect(exp.Params().Coupling[1]).To(Equal(0.01))
		Expect(exp.TimeGrid().Len()).To(Equal(501))
		Expect(exp.EnergyGrid().Len()).To(Equal(201))
		Expect(exp.SolverOptions().Method).To(Equal(integrators.MethodAuto))
	})

	It("refuses spectra before any trajectory exists", func() {
		spec, err := exp.RunSpectra(ctx, nil)
		Expect(spec).To(BeNil())
		Expect(err).To(MatchError(dynamo.ErrNoTrajectory))
	})

	It("runs dynamics then spectra and keeps both", func() {
		seen := map[experiment.Stage]float64{}
		res, spec, err := exp.Run(ctx, func(s experiment.Stage, pct float64) {
			seen[s] = math.Max(seen[s], pct)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(exp.Dynamics()).To(BeIdenticalTo(res))
		Expect(exp.Spectrum()).To(BeIdenticalTo(spec))
		Expect(seen[experiment.StageDynamics]).To(Equal(100.0))
		Expect(seen[experiment.StageSpectra]).To(Equal(100.0))

		// the resonant Rabi doublet sits at ±g
		energy, _ := spec.Peak()
		Expect(math.Abs(energy)).To(BeNumerically("~", 0.01, 0.002))
		Expect(res.Metrics).To(HaveKeyWithValue("population_drift", BeNumerically("<", 1e-6)))
	})

	It("rejects a second dynamics run while one is in flight", func() {
		var nested error
		_, err := exp.RunDynamics(ctx, func(float64) {
			if nested == nil {
				_, nested = exp.RunDynamics(ctx, nil)
			}
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(nested).To(MatchError(dynamo.ErrBusy))
	})

	It("rejects a second spectra run while one is in flight", func() {
		_, err := exp.RunDynamics(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		var nested error
		_, err = exp.RunSpectra(ctx, func(float64) {
			if nested == nil {
				_, nested = exp.RunSpectra(ctx, nil)
			}
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(nested).To(MatchError(dynamo.ErrBusy))
	})

	It("leaves earlier results untouched when a run fails", func() {
		first, spec, err := exp.Run(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err = exp.Run(canceled, nil)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())

		Expect(exp.Dynamics()).To(BeIdenticalTo(first))
		Expect(exp.Spectrum()).To(BeIdenticalTo(spec))
	})

	It("compares solver methods without storing their results", func() {
		out, err := exp.Compare(ctx, []string{"dopri5", "rodas3", "rk4"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(3))
		for _, c := range out {
			Expect(c.Err).NotTo(HaveOccurred(), c.Method)
			Expect(c.Result.Trajectory.Len()).To(Equal(501))
		}
		a := out[0].Result.Trajectory.Population(0)
		b := out[2].Result.Trajectory.Population(0)
		Expect(a[len(a)-1]).To(BeNumerically("~", b[len(b)-1], 1e-4))
		Expect(exp.Dynamics()).To(BeNil())

		_, err = exp.Compare(ctx, []string{"euler"})
		var cfgErr *dynamo.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
	})

	It("fails construction on an invalid configuration", func() {
		cfg := config.DefaultConfig()
		cfg.Spectra.EnergyStepEV = nil
		_, err := experiment.New(cfg, nil)
		var cfgErr *dynamo.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
	})
})

var _ = Describe("Registry", func() {
	It("lists every solver method", func() {
		r := experiment.NewRegistry()
		Expect(r.ListMethods()).To(Equal([]string{"auto", "dopri5", "rk4", "rodas3"}))
		Expect(r.Describe("rodas3")).To(ContainSubstring("Rosenbrock"))
	})

	It("gives rk4 a substep below the sample spacing", func() {
		opts, err := experiment.NewRegistry().Options("rk4", integrators.DefaultOptions(), 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.Method).To(Equal(integrators.MethodRK4))
		Expect(opts.MaxStep).To(Equal(0.1))
	})
})

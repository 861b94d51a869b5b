package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/experiment"
	"github.com/san-kum/spectrasim/internal/sim"
	"github.com/san-kum/spectrasim/internal/storage"
	"github.com/san-kum/spectrasim/internal/viz"
)

// progressPrinter writes a status line whenever a stage crosses a whole
// percent, so the callback stays cheap.
func progressPrinter(w io.Writer) experiment.Observer {
	last := map[experiment.Stage]int{}
	return func(stage experiment.Stage, pct float64) {
		p := int(pct)
		if prev, ok := last[stage]; ok && p <= prev {
			return
		}
		last[stage] = p
		fmt.Fprintf(w, "\r%-9s %3d%%", stage, p)
		if p >= 100 {
			fmt.Fprintln(w)
		}
	}
}

func newExperiment(args []string) (*experiment.Experiment, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	return experiment.New(cfg, cli.logger)
}

func runFull(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(args)
	if err != nil {
		return err
	}
	if err := cli.store.Init(); err != nil {
		return err
	}

	fmt.Printf("running %d photonic mode(s): %s\n", exp.Params().Photonic(), exp.Config())
	start := time.Now()
	res, spec, err := exp.Run(cmd.Context(), progressPrinter(os.Stderr))
	if err != nil {
		return err
	}
	return saveAndReport(exp, res, spec, time.Since(start))
}

func runDynamicsOnly(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(args)
	if err != nil {
		return err
	}
	if err := cli.store.Init(); err != nil {
		return err
	}

	observe := progressPrinter(os.Stderr)
	start := time.Now()
	res, err := exp.RunDynamics(cmd.Context(), func(pct float64) { observe(experiment.StageDynamics, pct) })
	if err != nil {
		return err
	}
	return saveAndReport(exp, res, nil, time.Since(start))
}

func runLive(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(args)
	if err != nil {
		return err
	}
	if err := cli.store.Init(); err != nil {
		return err
	}

	start := time.Now()
	model := viz.NewModel(cmd.Context(), fmt.Sprintf("spectrasim: %d photonic mode(s)", exp.Params().Photonic()), exp.Run)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return err
	}

	m := final.(viz.Model)
	if !m.Done() {
		return context.Canceled
	}
	if m.Err() != nil {
		return m.Err()
	}
	return saveAndReport(exp, exp.Dynamics(), exp.Spectrum(), time.Since(start))
}

func saveAndReport(exp *experiment.Experiment, res *sim.Result, spec *dynamo.Spectrum, elapsed time.Duration) error {
	runID, err := cli.store.Save(storage.Run{Config: exp.Config(), Dynamics: res, Spectrum: spec})
	if err != nil {
		return err
	}
	level.Info(cli.logger).Log("msg", "run stored", "run", runID, "elapsed", elapsed)

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d  steps: %d  rejected: %d  rhs evaluations: %d\n",
		res.Trajectory.Len(), res.Stats.Steps, res.Stats.Rejected, res.Stats.Evaluations)

	final := res.Trajectory.States[res.Trajectory.Len()-1].Populations()
	fmt.Printf("final excitons: %.6g\n", final[0])
	for i := 1; i < len(final); i++ {
		fmt.Printf("final photons (mode %d): %.6g\n", i, final[i])
	}

	if spec != nil {
		e, v := spec.Peak()
		fmt.Printf("spectrum peak: %.6g eV (intensity %.6g)\n", e, v)
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, res.Metrics[name])
	}
	return nil
}

func compareMethods(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(args[:1])
	if err != nil {
		return err
	}
	methods := args[1:]

	fmt.Printf("comparing %v on %s\n\n", methods, exp.Config())
	results, err := exp.Compare(cmd.Context(), methods)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSTATUS\tSTEPS\tREJECTED\tRHS\tTIME\tEXCITONS\tPHOTONS\tDRIFT")
	for _, c := range results {
		if c.Err != nil {
			fmt.Fprintf(w, "%s\t%v\t-\t-\t-\t-\t-\t-\t-\n", c.Method, c.Err)
			continue
		}
		traj := c.Result.Trajectory
		final := traj.States[traj.Len()-1].Populations()
		photons := 0.0
		for _, n := range final[1:] {
			photons += n
		}
		fmt.Fprintf(w, "%s\tok\t%d\t%d\t%d\t%v\t%.6g\t%.6g\t%.3g\n",
			c.Method,
			c.Result.Stats.Steps,
			c.Result.Stats.Rejected,
			c.Result.Stats.Evaluations,
			c.Result.Elapsed.Round(time.Microsecond),
			final[0],
			photons,
			c.Result.Metrics["population_drift"],
		)
	}
	return w.Flush()
}

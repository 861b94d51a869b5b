package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/spectrasim/internal/analysis"
	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/storage"
)

const maxPlots = 6

func modeName(i int) string {
	if i == 0 {
		return "excitons"
	}
	return fmt.Sprintf("photons in mode %d", i)
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := cli.store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tMODES\tEND\tSAMPLES\tMETHOD\tSTEPS\tSPECTRUM")
	for _, run := range runs {
		spectrum := "-"
		if run.HasSpectrum {
			spectrum = fmt.Sprintf("peak %.5g eV", run.PeakEnergyEV)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4gps\t%d\t%s\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Modes,
			run.TimeEndPs,
			run.Samples,
			run.Solver.LastMethod,
			run.Solver.Steps,
			spectrum,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, err := cli.store.Load(runID)
	if err != nil {
		return err
	}
	dyn, err := cli.store.LoadDynamics(runID)
	if err != nil {
		return err
	}
	if len(dyn.Seconds) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("modes: %d\n", meta.Modes)
	fmt.Printf("samples: %d\n\n", len(dyn.Seconds))

	for i, pop := range dyn.Modes {
		if i == maxPlots {
			fmt.Printf("(%d more modes not shown)\n\n", len(dyn.Modes)-maxPlots)
			break
		}
		fmt.Println(asciigraph.Plot(pop,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(modeName(i)+" vs time"),
		))
		fmt.Println()
	}

	if !meta.HasSpectrum {
		return nil
	}
	spec, err := cli.store.LoadSpectrum(runID)
	if err != nil {
		return err
	}
	if len(spec.Intensity) < 2 {
		return nil
	}
	fmt.Println(asciigraph.Plot(spec.Intensity,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("emission %.5g .. %.5g eV", spec.Energies[0], spec.Energies[len(spec.Energies)-1])),
	))
	fmt.Printf("\npeak: %.6g eV (intensity %.6g)\n", meta.PeakEnergyEV, meta.PeakIntensity)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return cli.store.CopyFile(args[0], spectrumOut, os.Stdout)
}

// picoseconds returns the sample spacing of stored dynamics in ps.
func picoseconds(dyn *storage.Dynamics) float64 {
	return (dyn.Seconds[1] - dyn.Seconds[0]) * 1e12
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	dyn, err := cli.store.LoadDynamics(runID)
	if err != nil {
		return err
	}
	if len(dyn.Seconds) < 4 {
		return fmt.Errorf("not enough samples to analyze")
	}

	dtPs := picoseconds(dyn)
	fmt.Printf("frequency analysis: %s\n", runID)
	fmt.Printf("sample spacing: %.4g ps\n\n", dtPs)

	omega, power := analysis.PowerSpectrum(dyn.Modes[0], dtPs)
	if len(power) > 8 {
		n := len(power) / 4
		omega, power = omega[:n], power[:n]
	}
	if len(power) > 1 {
		fmt.Println(asciigraph.Plot(power,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("power spectrum of exciton population, 0 .. %.4g rad/ps", omega[len(omega)-1])),
		))
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tOMEGA (rad/ps)\tPERIOD (ps)\tENERGY (eV)")
	for i, pop := range dyn.Modes {
		f := analysis.DominantFrequency(pop, dtPs)
		if f == 0 {
			fmt.Fprintf(w, "%d\t0\t-\t0\n", i)
			continue
		}
		fmt.Fprintf(w, "%d\t%.6g\t%.6g\t%.6g\n", i, f, 2*math.Pi/f, f*dynamo.Hbar)
	}
	return w.Flush()
}

func phasePlot(cmd *cobra.Command, args []string) error {
	dyn, err := cli.store.LoadDynamics(args[0])
	if err != nil {
		return err
	}

	traj := &dynamo.Trajectory{Modes: len(dyn.Modes)}
	for k := range dyn.Seconds {
		occ := make([]float64, len(dyn.Modes))
		for i := range dyn.Modes {
			occ[i] = dyn.Modes[i][k]
		}
		traj.States = append(traj.States, dynamo.DiagonalState(occ))
	}

	portrait := analysis.PopulationPortrait(traj, xAxis, yAxis)
	if portrait == nil {
		return fmt.Errorf("modes %d and %d must be below %d", xAxis, yAxis, traj.Modes)
	}
	fmt.Printf("phase portrait: %s vs %s\n\n", modeName(yAxis), modeName(xAxis))
	fmt.Println(portrait.ToASCII(60, 20))
	return nil
}

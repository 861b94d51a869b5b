package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/spectrasim/internal/automation"
	"github.com/san-kum/spectrasim/internal/storage"
)

var (
	sweepSpectra bool
	searchParams []string
	objective    string
	maximize     bool
	storeRuns    bool
)

func automationCommands() []*cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep [config] [param] [min] [max] [steps]",
		Short: "run a config across a range of one parameter",
		Long:  "run a config across a range of one parameter\n\nparameters: " + strings.Join(automation.ParamNames(), ", "),
		Args:  cobra.ExactArgs(5),
		RunE:  runSweep,
	}
	sweepCmd.Flags().BoolVar(&sweepSpectra, "spectra", false, "also compute the spectrum at each point")
	sweepCmd.Flags().BoolVar(&storeRuns, "store", false, "store every point as a run")

	searchCmd := &cobra.Command{
		Use:   "search [config]",
		Short: "grid search over parameters for the best objective",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	searchCmd.Flags().StringArrayVar(&searchParams, "param", nil, "name=v1,v2,... (repeatable)")
	searchCmd.Flags().StringVar(&objective, "objective", "population_drift", "summary field or metric to optimize")
	searchCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize the objective instead of minimizing")
	searchCmd.Flags().BoolVar(&sweepSpectra, "spectra", false, "compute spectra for every grid point (implied by peak objectives)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of configs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&storeRuns, "store", false, "store every step as a run")

	return []*cobra.Command{sweepCmd, searchCmd, scenarioCmd}
}

func printPoints(label string, points []automation.Point, params []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := append([]string{label}, params...)
	header = append(header, "EXCITONS", "PHOTONS", "PEAK (eV)", "INTENSITY", "DRIFT")
	fmt.Fprintln(w, strings.ToUpper(strings.Join(header, "\t")))

	for i, p := range points {
		row := []string{strconv.Itoa(i + 1)}
		for _, name := range params {
			row = append(row, strconv.FormatFloat(p.Params[name], 'g', 6, 64))
		}
		peak, intensity := "-", "-"
		if p.HasSpectrum {
			peak = fmt.Sprintf("%.6g", p.PeakEnergyEV)
			intensity = fmt.Sprintf("%.4g", p.PeakIntensity)
		}
		row = append(row,
			fmt.Sprintf("%.6g", p.FinalExcitons),
			fmt.Sprintf("%.6g", p.FinalPhotons),
			peak,
			intensity,
			fmt.Sprintf("%.3g", p.Metrics["population_drift"]),
		)
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func storePoints(points []automation.Point) error {
	if err := cli.store.Init(); err != nil {
		return err
	}
	for _, p := range points {
		exp := p.Experiment
		runID, err := cli.store.Save(storage.Run{Config: exp.Config(), Dynamics: exp.Dynamics(), Spectrum: exp.Spectrum()})
		if err != nil {
			return err
		}
		fmt.Printf("stored %s\n", runID)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(args[:1])
	if err != nil {
		return err
	}
	lo, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("min: %w", err)
	}
	hi, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("max: %w", err)
	}
	steps, err := strconv.Atoi(args[4])
	if err != nil {
		return fmt.Errorf("steps: %w", err)
	}

	sweep := automation.ParameterSweep{Param: args[1], Min: lo, Max: hi, Steps: steps, Spectra: sweepSpectra}
	points, err := automation.RunSweep(cmd.Context(), base, sweep, cli.logger)
	if perr := printPoints("POINT", points, []string{sweep.Param}); perr != nil {
		return perr
	}
	if err != nil {
		return err
	}
	if storeRuns {
		return storePoints(points)
	}
	return nil
}

// parseGrid turns name=v1,v2,... flags into parallel name and value slices.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	var names []string
	var ranges [][]float64
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("--param %q: want name=v1,v2,...", spec)
		}
		var values []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--param %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(args)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(searchParams)
	if err != nil {
		return err
	}

	obj := automation.Minimize(objective)
	if maximize {
		obj = automation.Maximize(objective)
	}
	gs := automation.NewGridSearch(names, ranges)
	gs.Spectra = sweepSpectra || automation.SpectralOutcome(objective)

	best, score, err := gs.Search(cmd.Context(), base, obj, cli.logger)
	if err != nil {
		return err
	}
	if maximize {
		score = -score
	}

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	fmt.Printf("best %s: %.6g\n", objective, score)
	for _, name := range sorted {
		fmt.Printf("  %s = %g\n", name, best.Params[name])
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("scenario: %s (%d steps)\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()

	points, err := automation.RunScenario(cmd.Context(), sc, cli.logger)
	if perr := printPoints("STEP", points, nil); perr != nil {
		return perr
	}
	if err != nil {
		return err
	}
	if storeRuns {
		return storePoints(points)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	kitlog "github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/spectrasim/internal/config"
	"github.com/san-kum/spectrasim/internal/storage"
)

// app carries what every command needs once the root has resolved settings.
type app struct {
	settings settings
	logger   kitlog.Logger
	store    *storage.Store
}

var (
	cli         app
	preset      string
	spectrumOut bool
	xAxis       int
	yAxis       int
	force       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "spectrasim",
		Short:         "exciton-photon dynamics and emission spectra",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(os.Stderr, s.LogLevel)
			if err != nil {
				return err
			}
			cli = app{settings: s, logger: logger, store: storage.New(s.DataDir)}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("data-dir", ".spectrasim", "run store directory")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error, none)")
	rootCmd.PersistentFlags().String("solver", "", "default solver method when the config names none")

	runCmd := &cobra.Command{
		Use:   "run [config]",
		Short: "run dynamics and spectra, store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFull,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "use a built-in preset instead of a config file")

	dynamicsCmd := &cobra.Command{
		Use:   "dynamics [config]",
		Short: "run dynamics only, store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDynamicsOnly,
	}
	dynamicsCmd.Flags().StringVar(&preset, "preset", "", "use a built-in preset instead of a config file")

	liveCmd := &cobra.Command{
		Use:   "live [config]",
		Short: "run with a live progress view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&preset, "preset", "", "use a built-in preset instead of a config file")

	compareCmd := &cobra.Command{
		Use:   "compare [config] [method1] [method2] ...",
		Short: "compare solver methods on the same config",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareMethods,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot populations and spectrum",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "write a run's dynamics (or spectrum) TSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().BoolVar(&spectrumOut, "spectrum", false, "export the spectrum instead of the dynamics")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.store.ExportJSON(args[0], os.Stdout)
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the populations",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "population phase portrait of two modes",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-mode", 0, "mode on the x axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-mode", 1, "mode on the y axis")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Printf("  %-10s %s\n", name, config.GetPreset(name))
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default or preset config",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "preset to write")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	rootCmd.AddCommand(runCmd, dynamicsCmd, liveCmd, compareCmd, listCmd, plotCmd, exportCmd, exportJSONCmd,
		analyzeCmd, phaseCmd, presetsCmd, initCmd)
	rootCmd.AddCommand(automationCommands()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the config named by args, or the --preset when none is given.
func loadConfig(args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case len(args) > 0:
		c, err := config.Load(args[0])
		if err != nil {
			return nil, err
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		return nil, fmt.Errorf("a config path or --preset is required")
	}

	if cfg.Solver.Method == "" {
		cfg.Solver.Method = cli.settings.Solver
	}
	return cfg, nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s exists (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pmacsim/internal/config"
	"github.com/san-kum/pmacsim/internal/engine"
	"github.com/san-kum/pmacsim/internal/metrics"
	"github.com/san-kum/pmacsim/internal/optim"
	"github.com/san-kum/pmacsim/internal/plasma"
	"github.com/san-kum/pmacsim/internal/report"
	"github.com/san-kum/pmacsim/internal/storage"
	"github.com/san-kum/pmacsim/internal/viz"
)

var (
	dataDir  string
	logLevel string
	simTime  float64
	dt       float64
	seed     int64
	// Config file
	configFile string
	// Preset name
	preset string
	// Policies
	sensorPolicy  string
	commandPolicy string
	cyclePhase    string
	// Outputs
	save      bool
	pngPath   string
	pngOutput string
	ascii     bool
	// Plot size
	plotWidth  int
	plotHeight int
	// Sweep
	numRuns   int
	seedStart int64
	// Tune
	tuneParams []string
	objective  string
	// Replay
	theme string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pmacsim",
		Short:         "plasma magnetic attenuation control simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pmacsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", true, "persist the run under the data directory")
	runCmd.Flags().StringVar(&pngPath, "png", "", "write the six-panel figure to this path")
	runCmd.Flags().BoolVar(&ascii, "plot", false, "print terminal plots after the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run summary",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 8, "plot height")

	pngCmd := &cobra.Command{
		Use:   "png [run_id]",
		Short: "render the six-panel figure",
		Args:  cobra.ExactArgs(1),
		RunE:  pngRun,
	}
	pngCmd.Flags().StringVarP(&pngOutput, "output", "o", "pmac_simulation.png", "output path")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "replay a run interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}
	replayCmd.Flags().StringVar(&theme, "theme", viz.ThemeCyberpunk.Name, fmt.Sprintf("color theme %v", viz.ThemeNames()))

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a seeded ensemble and summarize it",
		Args:  cobra.NoArgs,
		RunE:  sweepRuns,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&numRuns, "runs", 10, "number of runs")
	sweepCmd.Flags().Int64Var(&seedStart, "seed-start", 1, "seed of the first run")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search configuration parameters",
		Args:  cobra.NoArgs,
		RunE:  tuneRuns,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "parameter grid as name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&objective, "objective", "clear", "objective (clear, power)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "available presets:")
			for _, name := range config.ListPresets() {
				fmt.Fprintf(out, "  %s\n", name)
			}
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the default configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(config.DefaultConfig())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, pngCmd, exportJSONCmd,
		exportCSVCmd, replayCmd, sweepCmd, tuneCmd, presetsCmd, configCmd)
	return rootCmd
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&simTime, "time", config.DefaultSimTime, "simulated duration (s)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&sensorPolicy, "sensor-policy", config.SensorModulated, "sensor sampling (modulated, redraw)")
	cmd.Flags().StringVar(&commandPolicy, "command-policy", config.CommandLatchedZero, "command between cadence steps (latched-zero, carry-forward)")
	cmd.Flags().StringVar(&cyclePhase, "cycle-phase", config.CycleHold, "field inside a window (hold, ramp)")
}

// buildConfig layers preset, config file and explicitly set flags, in that
// order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("time") {
		cfg.SimTime = simTime
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if flags.Changed("sensor-policy") {
		cfg.Controller.SensorPolicy = sensorPolicy
	}
	if flags.Changed("command-policy") {
		cfg.Controller.CommandPolicy = commandPolicy
	}
	if flags.Changed("cycle-phase") {
		cfg.CyclePhase = cyclePhase
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}
	for _, m := range metrics.Defaults(eng.Plasma()) {
		eng.AddMetric(m)
	}
	stride := cfg.ControlStride()
	eng.AddObserver(engine.ObserverFunc(func(s engine.Sample) {
		if s.Commanded && s.Index%(stride*10) == 0 {
			logrus.Debugf("t=%.3fs n_e=%.3e command=%.3f", s.T, s.Density, s.Command)
		}
	}))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running pmac simulation (%s steps, seed %d)...\n",
		humanize.Comma(int64(len(engine.TimeGrid(cfg.SimTime, cfg.Dt)))), cfg.Seed)
	start := time.Now()

	res, err := eng.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "completed in %v\n", time.Since(start))

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(res)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Fprintf(out, "run id: %s\n", runID)
	}

	fmt.Fprintf(out, "peak coil current: %.1f kA\n", eng.Coil().CoilCurrent(cfg.BMax))
	fmt.Fprintln(out, report.Status(res, cfg.GuidanceThreshold))
	fmt.Fprintln(out, report.SummaryLine(res.Metrics))

	if ascii {
		fmt.Fprintln(out)
		fmt.Fprintln(out, report.ASCIIPanels(res, 80, 8))
	}
	if pngPath != "" {
		if err := report.SavePNG(pngPath, res, 15, 10); err != nil {
			return fmt.Errorf("failed to write figure: %w", err)
		}
		fmt.Fprintf(out, "figure: %s\n", pngPath)
	}

	return eng.MarkReported()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSTEPS\tSEED\tREDUCTION\tCLEAR\tPEAK POWER")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1f%%\t%.1f%%\t%s\n",
			run.ID,
			humanize.Time(run.Timestamp),
			humanize.Comma(int64(run.Steps)),
			run.Seed,
			run.Metrics.DensityReduction,
			run.Metrics.GuidanceClear,
			humanize.SIWithDigits(run.Metrics.PeakPower, 1, "W"),
		)
	}

	return w.Flush()
}

func loadResult(runID string) (*storage.RunMetadata, *engine.Result, error) {
	st := storage.New(dataDir)
	meta, res, err := st.LoadResult(runID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return meta, res, nil
}

func showRun(cmd *cobra.Command, args []string) error {
	_, res, err := loadResult(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.Block(args[0], res))
	fmt.Fprintln(out, report.SummaryLine(res.Metrics))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	_, res, err := loadResult(args[0])
	if err != nil {
		return err
	}
	if res.Series.Len() == 0 {
		return report.ErrNoSamples
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.ASCIIPanels(res, plotWidth, plotHeight))
	return nil
}

func pngRun(cmd *cobra.Command, args []string) error {
	_, res, err := loadResult(args[0])
	if err != nil {
		return err
	}
	if err := report.SavePNG(pngOutput, res, 15, 10); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "figure: %s\n", pngOutput)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, res, err := loadResult(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(cmd.OutOrStdout(), meta, res.Series)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, res, err := loadResult(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(cmd.OutOrStdout(), res.Series)
}

func replayRun(cmd *cobra.Command, args []string) error {
	th, ok := viz.GetTheme(theme)
	if !ok {
		return fmt.Errorf("unknown theme: %s (available: %v)", theme, viz.ThemeNames())
	}
	_, res, err := loadResult(args[0])
	if err != nil {
		return err
	}
	model := viz.NewReplayModel(res, "pmac replay: "+args[0]).WithTheme(th)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func sweepRuns(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ens := engine.NewEnsemble(cfg, numRuns, seedStart, func() []engine.Metric {
		return metrics.Defaults(plasma.New(cfg))
	})

	start := time.Now()
	results, err := ens.Run(cmd.Context())
	if err != nil {
		return err
	}
	sum := engine.Summarize(results)

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tREDUCTION\tCLEAR\tBLACKOUT\tEFFORT")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.1f%%\t%.1f%%\t%.3fs\t%.3f\n",
			r.Seed,
			r.Metrics.DensityReduction,
			r.Metrics.GuidanceClear,
			r.Metrics.BlackoutTime,
			r.Metrics.Extra["control_effort"],
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d runs in %v\n", sum.Runs, time.Since(start))
	fmt.Fprintf(out, "reduction: %.2f%% ± %.2f\n", sum.ReductionMean, sum.ReductionStdDev)
	fmt.Fprintf(out, "guidance clear: %.2f%% ± %.2f (min %.2f, max %.2f)\n",
		sum.GuidanceClearMean, sum.GuidanceClearStdDev, sum.MinGuidanceClear, sum.MaxGuidanceClear)
	fmt.Fprintf(out, "control effort: %.3f\n", sum.CommandEffortMean)
	return nil
}

func parseGrid(args []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, arg := range args {
		name, values, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid --param %q: want name=v1,v2", arg)
		}
		var vals []float64
		for _, v := range strings.Split(values, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid value in --param %q: %w", arg, err)
			}
			vals = append(vals, f)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func tuneRuns(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if len(tuneParams) == 0 {
		return fmt.Errorf("at least one --param is required (available: %v)", optim.ParamNames())
	}

	names, ranges, err := parseGrid(tuneParams)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	var obj optim.Objective
	switch objective {
	case "clear":
		obj = optim.MaxGuidanceClear
	case "power":
		obj = optim.MinPeakPower
	default:
		return fmt.Errorf("unknown objective: %s (available: clear, power)", objective)
	}

	best, score, err := g.Search(cmd.Context(), cfg, obj)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "best (%s = %g):\n", objective, score)
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %g\n", name, best[name])
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/dynamo"
	"github.com/san-kum/wavesim/internal/experiment"
	"github.com/san-kum/wavesim/internal/export"
	"github.com/san-kum/wavesim/internal/metrics"
	"github.com/san-kum/wavesim/internal/storage"
)

var (
	dataDir string
	outDir  string
	verbose bool

	configFile  string
	v0          float64
	energy      float64
	dt          float64
	steps       int
	stride      int
	densityMode string
	keepHistory bool
	stationary  bool
	noAnimation bool
	save        bool
	fps         int

	// sweep and search
	param   string
	pmin    float64
	pmax    float64
	points  int
	workers int
	metric  string
	goal    string

	// montecarlo
	trials   int
	xcJitter float64
	eJitter  float64
	seed     int64

	frameIdx int
	theme    string
	scale    float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wavesim",
		Short: "1D Schrödinger wave packet lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".wavesim", "run store directory")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "", "output directory for images (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "propagate a wave packet and export the animation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&stationary, "stationary", false, "also solve and plot the stationary states")
	runCmd.Flags().BoolVar(&noAnimation, "no-animation", false, "skip the GIF")
	runCmd.Flags().BoolVar(&save, "save", false, "save frames and metrics to the run store")

	statesCmd := &cobra.Command{
		Use:   "states [preset]",
		Short: "solve and plot the stationary states",
		Args:  cobra.MaximumNArgs(1),
		RunE:  solveStates,
	}
	addConfigFlags(statesCmd)

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "propagate, then replay the frames in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "neon", "color theme")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved frame in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&frameIdx, "frame", -1, "frame index (default: all frames' norm)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "print a run's frames as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "write a saved frame as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().IntVar(&frameIdx, "frame", 0, "frame index")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("available presets:")
			for _, name := range config.ListPresets() {
				fmt.Printf("  %-8s %s\n", name, config.Presets[name].Description)
			}
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [preset] [path]",
		Short: "write a preset as an editable YAML config",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("%w: unknown preset %q (available: %v)", dynamo.ErrInvalidConfig, args[0], config.ListPresets())
			}
			if err := config.Save(args[1], cfg); err != nil {
				return err
			}
			fmt.Printf("config written to %s\n", args[1])
			return nil
		},
	}

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [preset]",
		Short: "momentum distribution of the initial packet",
		Args:  cobra.MaximumNArgs(1),
		RunE:  momentumSpectrum,
	}
	addConfigFlags(spectrumCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run one propagation per parameter value, concurrently",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	addSweepFlags(sweepCmd)

	searchCmd := &cobra.Command{
		Use:   "search [preset]",
		Short: "grid search a parameter for the best metric value",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSearch,
	}
	addConfigFlags(searchCmd)
	addSweepFlags(searchCmd)
	searchCmd.Flags().StringVar(&goal, "goal", "min", "min or max")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [preset]",
		Short: "run trials with a jittered packet centre and energy",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&xcJitter, "xc-jitter", 0.02, "max shift of the packet centre")
	monteCarloCmd.Flags().Float64Var(&eJitter, "e-jitter", 0.5, "max shift of the packet energy")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 seeds from the clock")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 4, "concurrent runs")
	monteCarloCmd.Flags().StringVar(&metric, "metric", "reflection", "metric to report")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&save, "save", false, "save every step to the run store")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the propagator",
		RunE:  benchPropagator,
	}

	rootCmd.AddCommand(runCmd, statesCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, svgCmd,
		presetsCmd, initCmd, spectrumCmd, sweepCmd, searchCmd, monteCarloCmd, scenarioCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml), applied over the preset")
	cmd.Flags().Float64Var(&v0, "v0", config.DefaultV0, "potential height")
	cmd.Flags().Float64Var(&energy, "e", config.DefaultE, "packet energy as a fraction of v0")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of density rows")
	cmd.Flags().IntVar(&stride, "stride", config.DefaultStride, "rows between animation frames")
	cmd.Flags().StringVar(&densityMode, "density-mode", "leapfrog", "leapfrog or standard")
	cmd.Flags().BoolVar(&keepHistory, "keep-history", false, "retain every density row")
	cmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "animation frame rate")
}

func addSweepFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&param, "param", "e", fmt.Sprintf("parameter to vary %v", config.Params))
	cmd.Flags().Float64Var(&pmin, "min", 1, "first value")
	cmd.Flags().Float64Var(&pmax, "max", 5, "last value")
	cmd.Flags().IntVar(&points, "points", 5, "number of values")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent runs")
	cmd.Flags().StringVar(&metric, "metric", "reflection", "metric to report")
}

// loadConfig layers preset, config file and changed flags, in that order.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	name := "step"
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("%w: unknown preset %q (available: %v)", dynamo.ErrInvalidConfig, name, config.ListPresets())
	}

	if configFile != "" {
		var err error
		if cfg, err = config.LoadOver(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("v0") {
		cfg.Potential.V0 = v0
	}
	if flags.Changed("e") {
		cfg.Packet.E = energy
	}
	if flags.Changed("dt") {
		cfg.Propagation.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Propagation.Steps = steps
	}
	if flags.Changed("stride") {
		cfg.Propagation.Stride = stride
	}
	if flags.Changed("density-mode") {
		cfg.Propagation.DensityMode = densityMode
	}
	if flags.Changed("keep-history") {
		cfg.Propagation.KeepHistory = keepHistory
	}
	if flags.Changed("fps") {
		cfg.Output.FPS = fps
	}
	if flags.Changed("stationary") {
		cfg.Stationary.Enabled = stationary
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	return cfg, nil
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	session, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	var states []dynamo.Eigenstate
	if cfg.Stationary.Enabled {
		if states, err = writeStates(session); err != nil {
			return err
		}
	}

	ctx, stop := interruptible()
	defer stop()

	fmt.Printf("propagating %s: %d points, %d steps, k = %g\n", cfg.Name, session.Grid().Len(), cfg.Propagation.Steps, session.Wavenumber())
	result, err := session.Run(ctx)
	if err != nil {
		return err
	}
	if result.Unstable {
		first := -1
		if st, ok := session.Metric("stability").(*metrics.Stability); ok {
			first = st.FirstViolation()
		}
		slog.Warn("propagation went unstable, frames may contain NaN or overflow",
			"first_bad_step", first,
			"courant", session.Stepper().Courant(),
			"hint", "reduce dt")
	}

	if !noAnimation {
		path, err := session.Animation(result.Frames).Save(cfg.Output.Dir, cfg.Output.AnimationFile)
		if err != nil {
			return err
		}
		fmt.Printf("Animation exportée dans %s\n", path)
	}

	if save {
		st := storage.New(dataDir)
		runID, err := st.Save(session.Record(result, states))
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printMetrics(result.Metrics)
	return nil
}

func writeStates(session *experiment.Session) ([]dynamo.Eigenstate, error) {
	states, err := session.Stationary()
	if err != nil {
		return nil, err
	}
	opts, err := session.StatesOptions()
	if err != nil {
		return nil, err
	}
	out := session.Config().Output
	path, err := export.SaveStatesPNG(out.Dir, out.StatesFile, session.Grid(), session.Potential(), states, opts)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Graphique des états stationnaires exporté dans '%s'\n", path)
	return states, nil
}

func solveStates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	session, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	states, err := writeStates(session)
	if err != nil {
		return err
	}
	for i, st := range states {
		fmt.Printf("  E%-3d %14.6f\n", i, st.Energy)
	}
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

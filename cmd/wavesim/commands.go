package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/wavesim/internal/analysis"
	"github.com/san-kum/wavesim/internal/automation"
	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/experiment"
	"github.com/san-kum/wavesim/internal/export"
	"github.com/san-kum/wavesim/internal/optim"
	"github.com/san-kum/wavesim/internal/physics"
	"github.com/san-kum/wavesim/internal/storage"
	"github.com/san-kum/wavesim/internal/viz"
)

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	session, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	fmt.Printf("propagating %s...\n", cfg.Name)
	result, err := session.Run(ctx)
	if err != nil {
		return err
	}

	viz.SetTheme(theme)
	return viz.Play(viz.PlayerConfig{
		Title:     cfg.AnimationTitle(),
		Grid:      session.Grid(),
		Potential: session.Potential(),
		Frames:    result.Frames,
		Dt:        cfg.Propagation.Dt,
		YMin:      cfg.Output.YMin,
		YMax:      cfg.Output.YMax,
		FPS:       cfg.Output.FPS,
		OnSnapshot: func(c *viz.Canvas, frame int) (string, error) {
			if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
				return "", err
			}
			path := filepath.Join(cfg.Output.Dir, fmt.Sprintf("snapshot_%03d.svg", frame))
			return path, os.WriteFile(path, []byte(export.CanvasToSVG(c, 4)), 0644)
		},
	})
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPOINTS\tSTEPS\tV0\tE\tFRAMES\tSTATES\tUNSTABLE\tTIME")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%d\t%d\t%g\t%g\t%d\t%d\t%v\t%s\n",
			r.ID, r.Points, r.Steps, r.V0, r.E, r.Frames, len(r.Energies), r.Unstable,
			r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	g, frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if frames.Len() == 0 {
		return fmt.Errorf("run %s has no frames", runID)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("v0: %g  E/V0: %g  dt: %g\n\n", meta.V0, meta.E, meta.Dt)

	if frameIdx >= 0 {
		if frameIdx >= frames.Len() {
			return fmt.Errorf("frame %d out of range [0, %d)", frameIdx, frames.Len())
		}
		row := frames.Row(frameIdx)
		fmt.Println(viz.PlotRow(row, 80, 15, fmt.Sprintf("|psi|^2 at step %d", frames.Steps[frameIdx])))
		split := analysis.SplitAt(g, row, g.Index(meta.Start), g.Index(meta.End))
		fmt.Println()
		fmt.Println(viz.Summary(frames.Steps[frameIdx], analysis.Norm(g, row), split.Reflected, split.Transmitted))
		fmt.Printf("<x> %.4f  spread %.4f\n", analysis.MeanPosition(g, row), analysis.Spread(g, row))
		return nil
	}

	norms := make([]float64, frames.Len())
	positions := make([]float64, frames.Len())
	for k := range norms {
		norms[k] = analysis.Norm(g, frames.Row(k))
		positions[k] = analysis.MeanPosition(g, frames.Row(k))
	}
	fmt.Println(viz.PlotRow(norms, 80, 10, "norm per frame"))
	fmt.Println()
	fmt.Println(viz.PlotRow(positions, 80, 10, "<x> per frame"))
	fmt.Printf("\nnorm spark: %s\n", viz.Sparkline(norms, 60))

	// a packet bouncing in a well shows up as a peak in the spectrum of <x>
	if len(positions) >= 4 && !floats.HasNaN(positions) {
		mean := floats.Sum(positions) / float64(len(positions))
		centred := make([]float64, len(positions))
		copy(centred, positions)
		floats.AddConst(-mean, centred)
		ps := analysis.PowerSpectrum(centred)
		fmt.Println()
		fmt.Println(viz.PlotRow(ps, 60, 8, "power spectrum of <x>"))
		if peak := floats.MaxIdx(ps[1:]) + 1; meta.Stride > 0 && meta.Dt > 0 {
			period := float64(len(positions)*meta.Stride) * meta.Dt / float64(peak)
			fmt.Printf("dominant period: %.4g\n", period)
		}
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	g, frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	header := make([]string, frames.Len()+1)
	header[0] = "x"
	for k := 0; k < frames.Len(); k++ {
		header[k+1] = "step_" + strconv.Itoa(frames.Steps[k])
	}
	if err := w.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for j, x := range g.X {
		record[0] = strconv.FormatFloat(x, 'g', -1, 64)
		for k := 0; k < frames.Len(); k++ {
			record[k+1] = strconv.FormatFloat(frames.Row(k)[j], 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	run, err := st.LoadRun(args[0])
	if err != nil {
		return err
	}
	if outDir == "" {
		return storage.ExportJSONStdout(run)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(outDir, run.Meta.ID+".json")
	if err := storage.ExportJSON(path, run); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	g, frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if frameIdx < 0 || frameIdx >= frames.Len() {
		return fmt.Errorf("frame %d out of range [0, %d)", frameIdx, frames.Len())
	}

	row := frames.Row(frameIdx)
	// the potential is drawn at the height of the density peak
	v := physics.NewRectangularPotential(g, meta.Start, meta.End, meta.V0)
	if meta.V0 != 0 {
		floats.Scale(floats.Max(row)/math.Abs(meta.V0), v)
	}

	dir := outDir
	if dir == "" {
		dir = config.DefaultOutputDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_frame_%03d.svg", runID, frameIdx))
	if err := os.WriteFile(path, []byte(export.FrameSVG(g, row, v, export.SVGOptions{})), 0644); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func momentumSpectrum(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	session, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	dist := analysis.Momentum(session.Grid(), session.InitialState())

	// only the part of k space the packet occupies is worth drawing
	peak := floats.Max(dist.P)
	lo, hi := 0, len(dist.P)-1
	for lo < hi && dist.P[lo] < 1e-4*peak {
		lo++
	}
	for hi > lo && dist.P[hi] < 1e-4*peak {
		hi--
	}

	fmt.Printf("momentum distribution: %s\n\n", cfg.Name)
	fmt.Println(viz.PlotRow(dist.P[lo:hi+1], 80, 12, fmt.Sprintf("|phi(k)|^2, k in [%.1f, %.1f]", dist.K[lo], dist.K[hi])))
	fmt.Printf("\nk (packet):  %.4f\n", session.Wavenumber())
	fmt.Printf("k (peak):    %.4f\n", dist.Peak())
	fmt.Printf("<k>:         %.4f\n", dist.Mean())
	fmt.Printf("k spacing:   %.4f\n", dist.K[1]-dist.K[0])
	return nil
}

func sweepConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	if err := experiment.NewRegistry().Check(metric); err != nil {
		return nil, err
	}
	// sweeps only need metrics, frames stay in memory
	cfg.Propagation.KeepHistory = false
	return cfg, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := sweepConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:    cfg,
		Param:   param,
		Min:     pmin,
		Max:     pmax,
		Points:  points,
		Workers: workers,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\tnorm\tunstable\n", param, metric)
	values := make([]float64, len(results))
	for i, r := range results {
		values[i] = r.Metrics[metric]
		fmt.Fprintf(w, "%g\t%.6f\t%.6f\t%v\n", r.Value, r.Metrics[metric], r.Metrics["norm"], r.Unstable)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(values) > 1 {
		series := [][]float64{values}
		caption := fmt.Sprintf("%s vs %s", metric, param)
		if metric == "reflection" {
			trans := make([]float64, len(results))
			for i, r := range results {
				trans[i] = r.Metrics["transmission"]
			}
			series = append(series, trans)
			caption = fmt.Sprintf("reflection, transmission vs %s", param)
		}
		fmt.Println()
		fmt.Println(viz.PlotSeries(series, 60, 10, caption))
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := sweepConfig(cmd, args)
	if err != nil {
		return err
	}
	g, err := optim.ParseGoal(goal)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	search := optim.NewGridSearch([]string{param}, [][]float64{optim.Linspace(pmin, pmax, points)}, workers)
	best, all, err := search.Search(ctx, cfg, metric, g)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d candidates\n", len(all))
	fmt.Printf("best %s = %g: %s = %.6f\n", param, best.Params[param], metric, best.Value)
	if best.Unstable {
		fmt.Println("warning: every candidate went unstable")
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := sweepConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:      cfg,
		XcJitter:  xcJitter,
		EJitter:   eJitter,
		NumTrials: trials,
		Workers:   workers,
		Seed:      seed,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "trial\txc\te\t%s\tunstable\n", metric)
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.6f\t%v\n", r.TrialID, r.Xc, r.E, r.Metrics[metric], r.Unstable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	sum := summarizeTrials(results, metric)
	fmt.Printf("\n%s over %d stable trials: mean %.6f, stddev %.6f\n", metric, sum.Stable, sum.Mean, sum.StdDev)
	if sum.Stable < len(results) {
		fmt.Printf("warning: %d trials went unstable\n", len(results)-sum.Stable)
	}
	return nil
}

type trialSummary struct {
	Stable int
	Mean   float64
	StdDev float64
}

// summarizeTrials averages metric over the stable trials only.
func summarizeTrials(results []automation.MonteCarloResult, metric string) trialSummary {
	var values []float64
	for _, r := range results {
		if v, ok := r.Metrics[metric]; ok && !r.Unstable {
			values = append(values, v)
		}
	}
	sum := trialSummary{Stable: len(values), Mean: math.NaN(), StdDev: math.NaN()}
	switch len(values) {
	case 0:
	case 1:
		sum.Mean, sum.StdDev = values[0], 0
	default:
		sum.Mean, sum.StdDev = stat.MeanStdDev(values, nil)
	}
	return sum
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	fmt.Printf("scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Printf("%s\n", scenario.Description)
	}
	results, err := automation.RunScenario(ctx, scenario)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	for i, r := range results {
		fmt.Printf("\n[%d] %s: %d frames, reflection %.4f, transmission %.4f\n",
			i+1, r.Name, r.Result.Frames.Filled(), r.Result.Metrics["reflection"], r.Result.Metrics["transmission"])
		if !save {
			continue
		}
		runID, err := st.Save(r.Session.Record(r.Result, r.States))
		if err != nil {
			return err
		}
		fmt.Printf("    run id: %s\n", runID)
	}
	return nil
}

func benchPropagator(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DX\tPOINTS\tSTEPS\tTIME\tSTEPS/S\tPOINT-STEPS/S")

	const benchSteps = 2000
	for _, dx := range []float64{0.01, 0.005, 0.002, 0.001} {
		cfg := config.DefaultConfig()
		cfg.Name = "bench"
		cfg.Grid.Dx = dx
		cfg.Propagation.Dt = 0.1 * dx * dx
		cfg.Propagation.Steps = benchSteps

		session, err := experiment.NewWithMetrics(cfg, nil)
		if err != nil {
			return err
		}

		start := time.Now()
		if _, err := session.Simulator().Run(context.Background(), session.InitialState(), session.SimConfig()); err != nil {
			return err
		}
		elapsed := time.Since(start)

		perSec := float64(benchSteps) / elapsed.Seconds()
		fmt.Fprintf(w, "%g\t%d\t%d\t%v\t%.0f\t%.3g\n",
			dx, session.Grid().Len(), benchSteps, elapsed.Round(time.Microsecond), perSec, perSec*float64(session.Grid().Len()))
	}
	return w.Flush()
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Guo-astro/hvcc-gsph-sub001/internal/config"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/samples"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/solver"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/storage"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/viz"
)

var (
	dataDir    string
	configFile string
	endTime    float64
	particleN  int
	planar     bool
	live       bool
	verbose    bool
	plotColumn string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gsph",
		Short: "smoothed-particle hydrodynamics time-advance lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gsph", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [sample]",
		Short: "run a simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().Float64Var(&endTime, "end", 0, "override end time")
	runCmd.Flags().IntVar(&particleN, "n", 0, "override particle count")
	runCmd.Flags().BoolVar(&planar, "planar", false, "constrain motion to a plane")
	runCmd.Flags().BoolVar(&live, "live", false, "live diagnostics view")

	samplesCmd := &cobra.Command{
		Use:   "samples",
		Short: "list available samples",
		RunE:  listSamples,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored run diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotColumn, "column", "dt", "diagnostics column to plot")

	rootCmd.AddCommand(runCmd, samplesCmd, listCmd, plotCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(sample string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Sample = sample
	if endTime > 0 {
		cfg.Time.End = endTime
	}
	if particleN > 0 {
		cfg.N = particleN
	}
	if planar {
		cfg.Planar.Enabled = true
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}

	reg := samples.NewRegistry[float64]()
	s, err := solver.New(cfg, reg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var result *solver.Result[float64]
	if live {
		view := viz.NewLive()
		s.AddObserver(view)

		errCh := make(chan error, 1)
		go func() {
			var runErr error
			result, runErr = s.Run(ctx)
			view.Finish()
			errCh <- runErr
		}()
		if err := view.Run(); err != nil {
			return err
		}
		stop() // the view quit; cancel a still-running simulation
		if err := <-errCh; err != nil && err != context.Canceled {
			return err
		}
	} else {
		if result, err = s.Run(ctx); err != nil {
			return err
		}
	}
	if result == nil || result.Steps == 0 {
		return fmt.Errorf("run produced no steps")
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	runID, err := storage.Save(store, cfg, result)
	if err != nil {
		return err
	}

	printSummary(cfg, s, result, runID)
	return nil
}

func printSummary(cfg *config.Config, s *solver.Solver[float64], result *solver.Result[float64], runID string) {
	last := result.Records[len(result.Records)-1]
	stalls := 0
	for _, rec := range result.Records {
		if rec.Dt.Stalled {
			stalls++
		}
	}

	rows := []string{
		viz.Row("run", runID),
		viz.Row("pipeline", s.String()),
		viz.Row("steps", fmt.Sprintf("%d", result.Steps)),
		viz.Row("final time", fmt.Sprintf("%.6g", last.Time)),
		viz.Row("final dt", fmt.Sprintf("%.4g (%s)", last.Dt.Dt, last.Dt.Limiter)),
		viz.Row("energy drift", fmt.Sprintf("%.3g", result.EnergyDrift)),
		viz.Row("shock fraction", fmt.Sprintf("%.1f%%", last.ShockFraction*100)),
	}
	if stalls > 0 {
		rows = append(rows, viz.WarnStyle.Render(fmt.Sprintf("stall-breaker fired %d times", stalls)))
	}
	fmt.Println(viz.HeaderStyle.Render("run summary"))
	fmt.Println(viz.StatsStyle.Render(strings.Join(rows, "\n")))
}

func listSamples(cmd *cobra.Command, args []string) error {
	reg := samples.NewRegistry[float64]()
	for _, name := range reg.List() {
		fmt.Println(name)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no stored runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSAMPLE\tPARTICLES\tSTEPS\tDRIFT\tSTALLS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3g\t%d\n",
			r.ID, r.Sample, r.Particles, r.Steps, r.EnergyDrift, r.StallEvents)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	cols, err := store.LoadDiagnostics(args[0])
	if err != nil {
		return err
	}
	series, ok := cols[plotColumn]
	if !ok {
		names := make([]string, 0, len(cols))
		for name := range cols {
			names = append(names, name)
		}
		return fmt.Errorf("unknown column %q; have %s", plotColumn, strings.Join(names, ", "))
	}

	graph := asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Width(78),
		asciigraph.Caption(fmt.Sprintf("%s over %d steps (%s)", plotColumn, len(series), args[0])),
	)
	fmt.Println(graph)
	return nil
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/lifeline/internal/cohort"
	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/internal/domain/parametric"
	"github.com/okian/lifeline/pkg/logger"
)

// Default flag values.
const (
	defaultBaseURL     = "http://localhost:9080"
	defaultTimeout     = 30 * time.Second
	defaultSettle      = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
	defaultSubjects    = 200
	defaultScale       = 12.0
	defaultScaleStep   = 6.0
	defaultShape       = 1.4
	defaultCensorRate  = 0.25
	defaultOverlayNum  = 100
	overlayHorizonMult = 3
)

// Style hint keys set on the overlay series.
const (
	styleCurve = "curve"
	styleYAxis = "y_axis"
	styleDash  = "dash"
)

type rootFlags struct {
	cfg       cohort.Config
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "seed-cohort",
		Short:        "Seed a lifeline service with a cohort and verify the curves it returns",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(flags.logFormat)); err != nil {
				return err
			}
			return logger.SetLevelString(flags.logLevel)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.cfg.BaseURL, "url", defaultBaseURL, "base URL of the service")
	pf.IntVar(&flags.cfg.Workers, "workers", runtime.NumCPU()*2, "concurrent submitters")
	pf.DurationVar(&flags.cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	pf.DurationVar(&flags.cfg.SettleWithin, "settle", defaultSettle, "how long to wait for records to be stored")
	pf.StringVar(&flags.cfg.Output, "output", "", "write the submitted records to this JSON file")
	pf.StringVar(&flags.logLevel, "log-level", "info", "debug, info, warn or error")
	pf.StringVar(&flags.logFormat, "log-format", logger.FormatText, "text or json")

	root.AddCommand(newDemoCmd(flags), newSyntheticCmd(flags))
	return root
}

func newDemoCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Seed the three-arm narrative cohort (Supportive Care, Lonafarnib, NEUROWEAVE)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), &flags.cfg, cohort.Demo(), nil)
		},
	}
}

func newSyntheticCmd(flags *rootFlags) *cobra.Command {
	syn := cohort.SyntheticConfig{}
	var overlay bool

	cmd := &cobra.Command{
		Use:   "synthetic",
		Short: "Seed Weibull-distributed subjects with random censoring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				syn.Seed = time.Now().UnixNano()
			}
			records, err := cohort.Synthetic(syn)
			if err != nil {
				return err
			}
			var item *cohort.ChartItem
			if overlay {
				item = weibullOverlay(syn)
			}
			return run(cmd.Context(), &flags.cfg, records, item)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&syn.Groups, "groups", []string{"control", "treatment"}, "group labels, in chart order")
	f.IntVar(&syn.Subjects, "subjects", defaultSubjects, "subjects per group")
	f.Float64Var(&syn.Scale, "scale", defaultScale, "Weibull scale of the first group")
	f.Float64Var(&syn.ScaleStep, "scale-step", defaultScaleStep, "scale added for each following group")
	f.Float64Var(&syn.Shape, "shape", defaultShape, "Weibull shape")
	f.Float64Var(&syn.CensorRate, "censor-rate", defaultCensorRate, "probability that a subject is censored")
	f.Int64Var(&syn.Seed, "seed", 0, "random seed (default: current time)")
	f.BoolVar(&overlay, "overlay", true, "add the first group's generating Weibull CDF to the chart")
	return cmd
}

// weibullOverlay charts the CDF the first group was drawn from. The model
// multiplies x by its scale, so the time scale enters inverted. A CDF rises
// where the survival curves fall, so the series is labelled and hinted as one.
func weibullOverlay(syn cohort.SyntheticConfig) *cohort.ChartItem {
	return &cohort.ChartItem{
		Source: model.SourceParametric,
		Parametric: &cohort.ParametricItem{
			Group: fmt.Sprintf("Weibull CDF (scale %g, shape %g)", syn.Scale, syn.Shape),
			Kind:  string(model.Weibull),
			Parameters: map[string]float64{
				parametric.ParamScale: 1 / syn.Scale,
				parametric.ParamShape: syn.Shape,
			},
			Linspace: cohort.Linspace{Start: 0, Stop: syn.Scale * overlayHorizonMult, Num: defaultOverlayNum},
		},
		Style: map[string]string{styleCurve: "cdf", styleYAxis: "secondary", styleDash: "dot"},
	}
}

func run(parent context.Context, cfg *cohort.Config, records []cohort.Record, overlay *cohort.ChartItem) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	stats, err := cohort.Run(ctx, cfg, records, overlay)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "seeding finished",
		logger.Int("generated", stats.Generated),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("groups_verified", stats.Verified),
		logger.Duration("duration", stats.Duration))
	return nil
}

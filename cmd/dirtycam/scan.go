package main

import (
	"fmt"
	"io"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-dirtycam/internal/analyzer"
	"go-dirtycam/internal/config"
	"go-dirtycam/internal/container"
	"go-dirtycam/internal/logger"
	"go-dirtycam/internal/service"
	"go-dirtycam/pkg/models"
)

var scanOpts struct {
	recursive  bool
	format     string
	workers    int
	exts       []string
	failOn     int
	noSummary  bool
	sequential bool
	thresholds analyzer.Thresholds
}

var scanCmd = &cobra.Command{
	Use:   "scan [dir|file|url]...",
	Short: "Screen images and print one report per image",
	Long: `Screen every image named on the command line. Directories are listed
by extension, files and HTTP(S) or Azure blob URLs are screened as given.
Threshold flags override the environment for this run only.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	defaults := analyzer.DefaultThresholds()

	f := scanCmd.Flags()
	f.BoolVarP(&scanOpts.recursive, "recursive", "r", false, "Descend into subdirectories")
	f.StringVarP(&scanOpts.format, "format", "f", "text", "Report format (text, json)")
	f.IntVarP(&scanOpts.workers, "workers", "w", 0, "Images screened at once (0 = one per CPU)")
	f.StringSliceVar(&scanOpts.exts, "ext", nil, "Image extensions to list in directories (default: all supported)")
	f.IntVar(&scanOpts.failOn, "fail-on", 0, "Exit non-zero when an image has at least this many faults (0 = never)")
	f.BoolVar(&scanOpts.noSummary, "no-summary", false, "Do not print the batch summary")
	f.BoolVar(&scanOpts.sequential, "sequential", false, "Run the checks of one image on a single goroutine")

	f.Float64Var(&scanOpts.thresholds.FlatColorStdDev, "flat-color-stddev", defaults.FlatColorStdDev, "Flat color: fires when every color channel std dev is below this")
	f.Float64Var(&scanOpts.thresholds.NoiseStdDev, "noise-stddev", defaults.NoiseStdDev, "Noise: fires when the grayscale std dev exceeds this")
	f.Float64Var(&scanOpts.thresholds.TintMean, "tint-mean", defaults.TintMean, "Tint: fires when a channel mean difference exceeds this")
	f.Float64Var(&scanOpts.thresholds.TintStdDev, "tint-stddev", defaults.TintStdDev, "Tint: fires when a channel std dev difference exceeds this")
	f.Float64Var(&scanOpts.thresholds.BlurVariance, "blur-variance", defaults.BlurVariance, "Blur: fires when the Laplacian variance is below this")
	f.Float64Var(&scanOpts.thresholds.ExposureSum, "exposure-sum", defaults.ExposureSum, "Exposure: fires when the summed dark or bright bin heights, relative to the tallest bin, exceed this")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyScanFlags(cmd, cfg)

	c, err := container.NewContainer(cfg,
		container.WithFormat(scanOpts.format),
		container.WithOutput(cmd.OutOrStdout()),
		container.WithRecursive(scanOpts.recursive),
		container.WithExtensions(scanOpts.exts...),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refs, err := c.Repository().Resolve(ctx, args)
	if err != nil {
		return err
	}

	start := time.Now()
	results := c.Service().ScreenBatch(ctx, refs, c.Options())
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}

	if !scanOpts.noSummary {
		printSummary(cmd.ErrOrStderr(), c.Summary().Summary(), time.Since(start))
	}
	return checkFailOn(results, scanOpts.failOn)
}

// applyScanFlags copies explicitly set flags over the environment config
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Workers = scanOpts.workers
	}
	if f.Changed("sequential") {
		cfg.SequentialAnalysis = scanOpts.sequential
	}

	overrides := []struct {
		flag  string
		value float64
		dst   *float64
	}{
		{"flat-color-stddev", scanOpts.thresholds.FlatColorStdDev, &cfg.Thresholds.FlatColorStdDev},
		{"noise-stddev", scanOpts.thresholds.NoiseStdDev, &cfg.Thresholds.NoiseStdDev},
		{"tint-mean", scanOpts.thresholds.TintMean, &cfg.Thresholds.TintMean},
		{"tint-stddev", scanOpts.thresholds.TintStdDev, &cfg.Thresholds.TintStdDev},
		{"blur-variance", scanOpts.thresholds.BlurVariance, &cfg.Thresholds.BlurVariance},
		{"exposure-sum", scanOpts.thresholds.ExposureSum, &cfg.Thresholds.ExposureSum},
	}
	for _, o := range overrides {
		if f.Changed(o.flag) {
			*o.dst = o.value
		}
	}

	logger.WithFields(logrus.Fields{
		"workers":    cfg.Workers,
		"sequential": cfg.SequentialAnalysis,
		"thresholds": cfg.Thresholds,
	}).Debug("Scan configured")
}

func printSummary(w io.Writer, s models.BatchSummary, elapsed time.Duration) {
	fmt.Fprintf(w, "\nScreened %d images (%d failed) in %s\n",
		s.Screened, s.Failed, elapsed.Round(time.Millisecond))
	if s.Screened == 0 {
		return
	}
	fmt.Fprintf(w, "Faults per image: mean %.2f, median %.1f, max %d/%d\n",
		s.MeanFaults, s.MedianFaults, s.MaxFaultCount, models.MaxFaults)
	fmt.Fprintf(w, "Fault-free images: %d\n", s.FaultFreeImages)

	categories := make([]string, 0, len(s.CategoryCounts))
	for cat, n := range s.CategoryCounts {
		categories = append(categories, fmt.Sprintf("%s=%d", cat, n))
	}
	sort.Strings(categories)
	if len(categories) > 0 {
		fmt.Fprintf(w, "By category: %s\n", strings.Join(categories, " "))
	}
}

// checkFailOn returns an error when any screened image reaches threshold
func checkFailOn(results []service.Result, threshold int) error {
	if threshold <= 0 {
		return nil
	}
	var flagged []string
	for _, r := range results {
		if r.OK() && r.Report.FaultCount >= threshold {
			flagged = append(flagged, r.Image)
		}
	}
	if len(flagged) > 0 {
		logger.WithField("images", flagged).Warn("Fault threshold reached")
		return fmt.Errorf("%d image(s) with at least %d faults", len(flagged), threshold)
	}
	return nil
}

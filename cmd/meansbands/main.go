// Command meansbands reads posterior draws of a model run and writes the means
// and density bands of every requested product.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	meansbands "github.com/aouyang1/go-meansbands"
	"github.com/aouyang1/go-meansbands/config"
	"github.com/aouyang1/go-meansbands/draws"
	"github.com/aouyang1/go-meansbands/export"
	"github.com/aouyang1/go-meansbands/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML job configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("means and bands failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	job, err := loadJob(cfg)
	if err != nil {
		return err
	}

	opt, err := cfg.Options(logger)
	if err != nil {
		return err
	}
	if cfg.Paths.MetricsOut != "" {
		if opt.Metrics, err = metrics.NewRecorder(); err != nil {
			return err
		}
	}

	mb, err := meansbands.New(opt)
	if err != nil {
		return err
	}

	logger.Info("computing means and bands",
		"input_type", job.InputType,
		"class", job.Class.String(),
		"products", cfg.Job.Products,
		"draws_dir", cfg.Paths.DrawsDir)

	results, err := mb.Run(ctx, draws.FileReader{Dir: cfg.Paths.DrawsDir}, job)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return fmt.Errorf("unable to create output directory, %w", err)
	}
	for _, product := range job.Products {
		if err := write(cfg, job, product, results[product], logger); err != nil {
			return err
		}
	}

	if cfg.Paths.MetricsOut != "" {
		if err := opt.Metrics.WriteTextfile(cfg.Paths.MetricsOut); err != nil {
			return fmt.Errorf("unable to write metrics, %w", err)
		}
	}
	return nil
}

func write(cfg *config.Config, job meansbands.Job, product meansbands.Product, res *meansbands.Result, logger *slog.Logger) error {
	base := filepath.Join(cfg.Paths.OutputDir, fmt.Sprintf("%s_%s", job.InputType, meansbands.OutputVar(product, job.Class)))

	if err := export.WriteJSONFile(base+".json", res); err != nil {
		return fmt.Errorf("unable to write %s, %w", product, err)
	}
	if cfg.Paths.XLSX {
		if err := export.WriteXLSXFile(base+".xlsx", res); err != nil {
			return fmt.Errorf("unable to write %s workbook, %w", product, err)
		}
	}
	if cfg.Paths.Plots {
		if err := meansbands.PlotBands(base+".html", res); err != nil {
			return fmt.Errorf("unable to plot %s, %w", product, err)
		}
	}
	logger.Info("wrote product", "product", product.String(), "path", base, "failures", len(res.Failures))
	return nil
}

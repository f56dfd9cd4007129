// receiptagentd watches the inbox directories and drives every dropped
// document through extraction, recognition, validation, human review, and
// filing.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/parvezamm3/receipt-agent/internal/common"
	"github.com/parvezamm3/receipt-agent/internal/dispatch"
	"github.com/parvezamm3/receipt-agent/internal/extract"
	"github.com/parvezamm3/receipt-agent/internal/filer"
	"github.com/parvezamm3/receipt-agent/internal/ingest"
	"github.com/parvezamm3/receipt-agent/internal/journal"
	"github.com/parvezamm3/receipt-agent/internal/pipeline"
	"github.com/parvezamm3/receipt-agent/internal/recognize/openai"
	"github.com/parvezamm3/receipt-agent/internal/review"
	"github.com/parvezamm3/receipt-agent/internal/validate"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger("receiptagentd", cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("agent failed", "error", err)
		os.Exit(1)
	}
	logger.Info("agent stopped")
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	if err := provisionDirs(cfg); err != nil {
		return err
	}

	jrnl, err := journal.Open(ctx, cfg.Dirs.JournalPath, logger)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	masterLog := filer.NewMasterLog(cfg.Dirs.MasterLogPath, logger)
	fl := filer.New(cfg.Dirs.OutputDir, cfg.Dirs.QuarantineDir, cfg.Dirs.SucceededDir, masterLog, logger)

	recognizer := openai.NewClient(openai.Config{
		BaseURL:     cfg.Vision.BaseURL,
		APIKey:      cfg.Vision.APIKey,
		Model:       cfg.Vision.Model,
		Temperature: cfg.Vision.Temperature,
		Timeout:     cfg.Vision.Timeout,
		MaxImageMB:  cfg.Vision.MaxImageMB,
	}, logger)

	gateway := review.NewGateway(
		review.NewHTTPReviewer(cfg.Review.Endpoint, logger),
		cfg.Review.ShutdownGrace,
		logger,
	)

	exec := pipeline.NewExecutor(
		extract.NewPDFImageExtractor(logger),
		recognizer,
		gateway,
		fl,
		cfg.Dirs.AssetsDir,
		validate.Config{CheckLineItems: cfg.Validation.CheckLineItems},
		logger,
	)
	disp := dispatch.New(exec, fl, jrnl, logger)

	evCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Dirs.InboxDir},
		InitialScan: cfg.Watcher.InitialScan,
		Debounce:    cfg.Watcher.Debounce,
	}, logger)
	if err != nil {
		return fmt.Errorf("start inbox watcher: %w", err)
	}

	if err := disp.Recover(ctx); err != nil {
		logger.Warn("recovery of interrupted runs failed", "error", err)
	}

	logger.Info("agent started", "inbox", cfg.Dirs.InboxDir, "output", cfg.Dirs.OutputDir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		disp.Start(gctx, evCh)
		return nil
	})
	g.Go(func() error {
		for err := range errCh {
			logger.Error("inbox watcher error", "error", err)
		}
		return nil
	})
	return g.Wait()
}

// provisionDirs creates the managed directory layout and seeds an empty
// master log so first-run exports see a valid JSON object.
func provisionDirs(cfg *common.Config) error {
	dirs := []string{
		cfg.Dirs.InboxDir,
		cfg.Dirs.OutputDir,
		cfg.Dirs.QuarantineDir,
		cfg.Dirs.SucceededDir,
		cfg.Dirs.AssetsDir,
		filepath.Dir(cfg.Dirs.MasterLogPath),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
	}
	if _, err := os.Stat(cfg.Dirs.MasterLogPath); os.IsNotExist(err) {
		if err := os.WriteFile(cfg.Dirs.MasterLogPath, []byte("{}\n"), 0o644); err != nil {
			return fmt.Errorf("seed master log: %w", err)
		}
	}
	return nil
}

// runpipeline processes a single document end to end without a review
// surface: validation defects reject the run, clean runs are filed. Useful
// for smoke-testing a configuration against a known scan.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/parvezamm3/receipt-agent/internal/common"
	"github.com/parvezamm3/receipt-agent/internal/extract"
	"github.com/parvezamm3/receipt-agent/internal/filer"
	"github.com/parvezamm3/receipt-agent/internal/pipeline"
	"github.com/parvezamm3/receipt-agent/internal/recognize/openai"
	"github.com/parvezamm3/receipt-agent/internal/review"
	"github.com/parvezamm3/receipt-agent/internal/validate"
)

func main() {
	var sourcePath string
	flag.StringVar(&sourcePath, "file", "", "document to process")
	flag.Parse()

	cfg := common.LoadConfig()
	logger := common.NewLogger("runpipeline", cfg.LogLevel)
	slog.SetDefault(logger)

	if sourcePath == "" {
		fmt.Fprintln(os.Stderr, "usage: runpipeline -file <document.pdf>")
		os.Exit(2)
	}
	if cfg.Vision.APIKey == "" {
		logger.Error("OPENAI_API_KEY is required")
		os.Exit(1)
	}

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

	exec := pipeline.NewExecutor(
		extract.NewPDFImageExtractor(logger),
		recognizer,
		review.NewGateway(review.AutoApprover{}, cfg.Review.ShutdownGrace, logger),
		fl,
		cfg.Dirs.AssetsDir,
		validate.Config{CheckLineItems: cfg.Validation.CheckLineItems},
		logger,
	)

	job := pipeline.NewJob(sourcePath)
	if err := exec.Run(context.Background(), job); err != nil {
		logger.Error("run failed", "source", sourcePath, "error", err)
		os.Exit(1)
	}

	switch job.Stage {
	case pipeline.StageFiled:
		fmt.Printf("filed as %s\n", job.FiledName)
	default:
		fmt.Printf("quarantined: %s\n", job.FailureReason)
		os.Exit(1)
	}
}

// exportlog renders the master log as an XLSX workbook.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/parvezamm3/receipt-agent/internal/common"
	"github.com/parvezamm3/receipt-agent/internal/export"
	"github.com/parvezamm3/receipt-agent/internal/filer"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger("exportlog", cfg.LogLevel)
	slog.SetDefault(logger)

	var logPath, outPath string
	flag.StringVar(&logPath, "log", cfg.Dirs.MasterLogPath, "master log to read")
	flag.StringVar(&outPath, "out", "./receipts.xlsx", "workbook to write")
	flag.Parse()

	entries := filer.NewMasterLog(logPath, logger).Load()
	if err := export.WriteXLSX(entries, outPath); err != nil {
		logger.Error("export failed", "log", logPath, "out", outPath, "error", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d receipts to %s\n", len(entries), outPath)
}

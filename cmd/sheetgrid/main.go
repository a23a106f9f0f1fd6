package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sheetgrid/sheetgrid/internal/config"
	"github.com/sheetgrid/sheetgrid/internal/export"
	"github.com/sheetgrid/sheetgrid/internal/imaging"
	"github.com/sheetgrid/sheetgrid/internal/logging"
	"github.com/sheetgrid/sheetgrid/internal/ocr"
	"github.com/sheetgrid/sheetgrid/internal/pipeline"
	"github.com/sheetgrid/sheetgrid/internal/segment"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("sheetgrid %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sheetgrid: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadFromFlags()
	if err != nil {
		return err
	}

	log := logging.New("sheetgrid", logging.ParseLevel(cfg.LogLevel))
	log.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tpl *segment.Template
	if cfg.TemplatePath != "" {
		tpl, err = segment.LoadTemplate(cfg.TemplatePath)
		if err != nil {
			return err
		}
		tpl.Padding = cfg.Padding
	}

	// Text recognition degrades to extraction-only when the binary was
	// built without the ocr tag or the engine cannot start.
	var rec ocr.Recognizer
	client, err := ocr.NewClient(ocr.Options{
		Language:       cfg.Language,
		TessdataPrefix: cfg.TessdataPrefix,
	})
	switch {
	case errors.Is(err, ocr.ErrNotEnabled):
		log.Warn("text recognition disabled", "reason", err)
	case err != nil:
		return err
	default:
		defer client.Close()
		rec = client
	}

	p := pipeline.New(pipeline.Options{
		Mode:           cfg.Mode,
		Template:       tpl,
		Columns:        cfg.Columns,
		Rows:           cfg.Rows,
		ConfFloor:      cfg.ConfFloor,
		IoU:            cfg.IoU,
		TargetWidth:    cfg.TargetWidth,
		TargetHeight:   cfg.TargetHeight,
		PreserveScale:  cfg.PreserveScale,
		StrictBoundary: cfg.StrictBoundary,
		Workers:        workerCount(cfg, rec),
	}, rec, log)

	cache := imaging.NewCache()
	defer cache.Clear()

	for _, input := range cfg.InputPaths {
		img, err := cache.Load(input)
		if err != nil {
			return err
		}

		res, err := p.Run(ctx, img)
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}

		outDir := outputDir(cfg, input)
		if err := export.Write(outDir, res); err != nil {
			return err
		}
		cache.Evict(input)

		fmt.Printf("%s: extracted %d sections", filepath.Base(input), res.TotalSections)
		if res.Grid != nil {
			fmt.Printf(", %d grid columns", len(res.Grid.Columns))
		}
		if res.OverflowTruncated > 0 {
			fmt.Printf(" (%d candidates over budget)", res.OverflowTruncated)
		}
		fmt.Printf(" -> %s\n", outDir)
	}
	return nil
}

// outputDir keeps single-image runs flat and gives each image of a
// batch its own subdirectory named after the file.
func outputDir(cfg *config.Config, input string) string {
	if len(cfg.InputPaths) == 1 {
		return cfg.OutputDir
	}
	base := filepath.Base(input)
	return filepath.Join(cfg.OutputDir, strings.TrimSuffix(base, filepath.Ext(base)))
}

// workerCount caps concurrency at 1 when a real recognizer is attached,
// since the Tesseract client holds per-call engine state.
func workerCount(cfg *config.Config, rec ocr.Recognizer) int {
	if rec != nil {
		return 1
	}
	return cfg.Workers
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"seoaudit/internal/audit"
	"seoaudit/internal/config"
	"seoaudit/internal/report"
)

func main() {
	seedURL := flag.String("url", "", "Site URL to audit (required)")
	maxPages := flag.Int("max-pages", 0, "Page budget override")
	respectRobots := flag.Bool("respect-robots", false, "Honor robots.txt disallow rules and crawl-delay")
	cfgPath := flag.String("config", "", "Path to audit configuration (optional)")
	outPath := flag.String("out", "", "Write the JSON report to this file instead of stdout")
	xlsxPath := flag.String("xlsx", "", "Also export an XLSX summary to this file")
	timeout := flag.Duration("timeout", 0, "Global audit deadline (0 = unbounded)")
	flag.Parse()

	if *seedURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = *loaded
	}
	if *timeout > 0 {
		cfg.Audit.Deadline = config.DurationFrom(*timeout)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := audit.Request{URL: *seedURL}
	if *maxPages > 0 {
		req.MaxPages = maxPages
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "respect-robots" {
			req.RespectRobots = respectRobots
		}
	})

	result, err := audit.NewService(cfg, logger).Audit(ctx, req)
	if err != nil {
		if errors.Is(err, audit.ErrInvalidURL) || errors.Is(err, audit.ErrInvalidMaxPages) {
			log.Fatalf("invalid input: %v", err)
		}
		log.Fatalf("audit failed: %v", err)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("encode report: %v", err)
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, payload, 0o644); err != nil {
			log.Fatalf("write report: %v", err)
		}
		logger.Info("report written", "path", *outPath)
	} else {
		fmt.Println(string(payload))
	}

	if *xlsxPath != "" {
		if err := report.ExportXLSX(result, *xlsxPath); err != nil {
			log.Fatalf("export xlsx: %v", err)
		}
		logger.Info("xlsx exported", "path", *xlsxPath)
	}
}

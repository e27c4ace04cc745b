// Command catalogscrape harvests the upstream assessment catalog into the
// JSON file the recommendation service loads at startup.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/skillfit/assessrec/internal/config"
	logpkg "github.com/skillfit/assessrec/internal/logger"
	"github.com/skillfit/assessrec/internal/scraper"
)

func main() {
	var (
		baseURL  = flag.String("base-url", "https://www.shl.com/products/product-catalog/", "catalog root URL")
		out      = flag.String("out", "data/assessments.json", "output file")
		maxPages = flag.Int("max-pages", 40, "maximum list pages to visit")
		details  = flag.Bool("details", true, "visit product pages for descriptions")
	)
	flag.Parse()

	logger, err := logpkg.NewLogger(config.GetEnv())
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	opts := []scraper.Option{scraper.WithMaxPages(*maxPages)}
	if !*details {
		opts = append(opts, scraper.WithoutDetails())
	}

	s, err := scraper.New(*baseURL, logger, opts...)
	if err != nil {
		logger.Fatal("Invalid scraper configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	records, err := s.Scrape(ctx)
	if err != nil {
		logger.Fatal("Scrape failed", zap.Error(err))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode catalog", zap.Error(err))
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Fatal("Failed to write catalog", zap.Error(err))
	}

	logger.Info("Catalog written",
		zap.String("path", *out),
		zap.Int("assessments", len(records)),
	)
}

// Package main audits one token contract from the command line and prints the
// report as Markdown (or the holder table as CSV).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"token-audit/internal/apiclient"
	"token-audit/internal/chains"
	"token-audit/internal/config"
	"token-audit/internal/dextools"
	"token-audit/internal/domain"
	"token-audit/internal/goplus"
	"token-audit/internal/query"
	"token-audit/internal/reporting"
	"token-audit/internal/upstream"
)

func main() {
	cfg, err := config.LoadCLI(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.CLIConfig, out io.Writer) error {
	registry, err := chains.Load(cfg.ChainsFile)
	if err != nil {
		return err
	}

	scans, market := sources(cfg)
	loader := query.NewLoader(query.LoaderOptions{
		Cache:  query.NewCache(cfg.Upstream.QueryTTL),
		Scans:  scans,
		Market: market,
		Logger: log.New(os.Stderr, "[query] ", log.LstdFlags),
	})

	report, err := reporting.NewGenerator(registry, loader).Generate(ctx, domain.ChainID(cfg.Chain), cfg.Address)
	if err != nil {
		return err
	}

	switch cfg.Format {
	case config.FormatCSV:
		_, err = io.WriteString(out, reporting.RenderHoldersCSV(report.View))
	default:
		_, err = io.WriteString(out, reporting.RenderMarkdown(report))
	}
	return err
}

// sources returns the audit server's proxy when one is configured and the
// providers themselves otherwise.
func sources(cfg *config.CLIConfig) (query.ScanSource, query.MarketSource) {
	up := cfg.Upstream
	if cfg.Server != "" {
		client := apiclient.NewClient(cfg.Server, upstream.WithTimeout(up.Timeout))
		return client, client
	}

	scans := goplus.NewClient(up.GoPlusBaseURL, upstream.WithTimeout(up.Timeout))
	market := dextools.NewClient(up.DexToolsBaseURL, up.DexToolsAPIKey,
		upstream.WithTimeout(up.Timeout),
		upstream.WithRateLimit(up.DexToolsRPS, 1),
	)
	return scans, market
}

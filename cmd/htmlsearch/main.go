package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/htmlsearch/internal/config"
)

func main() {
	app := &cli.App{
		Name:  "htmlsearch",
		Usage: "Full-text search over a static HTML corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   "htmlsearch.kdl",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Corpus root directory (overrides config CORPUS_PATH)",
			},
			&cli.StringFlag{
				Name:    "storage",
				Aliases: []string{"s"},
				Usage:   "Index storage directory (overrides config INDEX_STORAGE)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude corpus paths matching glob patterns (repeatable)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus /metrics on this address (disabled if empty)",
			},
		},
		Commands: []*cli.Command{
			indexCommand,
			searchCommand,
			statusCommand,
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}

// loadConfigWithOverrides loads the KDL config and applies global CLI flag
// overrides on top of it.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		// A missing/unreadable config is only fatal if --root/--storage
		// don't supply what's needed; fall through and let the override
		// checks below surface a clearer error.
		cfg = nil
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	if root := c.String("root"); root != "" {
		abs, absErr := filepath.Abs(root)
		if absErr != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", root, absErr)
		}
		cfg.CorpusPath = abs
	}
	if storage := c.String("storage"); storage != "" {
		abs, absErr := filepath.Abs(storage)
		if absErr != nil {
			return nil, fmt.Errorf("failed to resolve storage path %q: %w", storage, absErr)
		}
		cfg.IndexStorage = abs
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludes...)
	}
	if addr := c.String("metrics-addr"); addr != "" {
		cfg.MetricsAddr = addr
	}

	if cfg.CorpusPath == "" {
		return nil, fmt.Errorf("corpus path is required: set CORPUS_PATH, htmlsearch.kdl, or --root")
	}
	if cfg.IndexStorage == "" {
		return nil, fmt.Errorf("index storage is required: set INDEX_STORAGE, htmlsearch.kdl, or --storage")
	}
	return cfg, nil
}

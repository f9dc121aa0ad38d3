package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/htmlsearch/internal/indexing"
	"github.com/standardbeagle/htmlsearch/internal/metrics"
)

var indexCommand = &cli.Command{
	Name:  "index",
	Usage: "Build the inverted index for a corpus",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}

		var m *metrics.Metrics
		if cfg.MetricsAddr != "" {
			m = metrics.New()
			m.Serve(c.Context, cfg.MetricsAddr)
		}

		stats, err := indexing.BuildIndex(c.Context, indexing.Options{
			CorpusPath:          cfg.CorpusPath,
			IndexStorage:        cfg.IndexStorage,
			SpillThresholdBytes: cfg.SpillThresholdBytes,
			ParallelWorkers:     cfg.ParallelWorkers,
			Exclude:             cfg.Exclude,
			Metrics:             m,
		})
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}

		fmt.Printf("indexed %d documents (%d skipped) into %d partial files, %d tokens, in %s\n",
			stats.DocsIndexed, stats.DocsSkipped, stats.PartialFiles, stats.Tokens, stats.Duration)
		return nil
	},
}

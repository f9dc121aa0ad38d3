package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/htmlsearch/internal/metrics"
	"github.com/standardbeagle/htmlsearch/internal/search"
)

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "Query the index and print the top-k URLs",
	ArgsUsage: "<query terms...>",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "k",
			Usage: "Number of results to return",
			Value: 0, // 0 -> use config DefaultK
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}

		query := strings.Join(c.Args().Slice(), " ")
		k := c.Int("k")
		if k <= 0 {
			k = cfg.DefaultK
		}

		var m *metrics.Metrics
		if cfg.MetricsAddr != "" {
			m = metrics.New()
			m.Serve(c.Context, cfg.MetricsAddr)
		}

		engine, err := search.Open(
			filepath.Join(cfg.IndexStorage, "index.jsonl"),
			filepath.Join(cfg.IndexStorage, "meta_index.json"),
			filepath.Join(cfg.IndexStorage, "urls.txt"),
			m,
		)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		defer engine.Close()

		results, err := engine.Search(c.Context, query, k)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("no results")
			return nil
		}
		for _, url := range results {
			fmt.Println(url)
		}
		return nil
	},
}

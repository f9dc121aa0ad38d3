package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

// statusCommand reports index health directly from the persisted
// artifacts: no separate status file is maintained.
var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "Report index health from persisted artifacts",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}

		finalPath := filepath.Join(cfg.IndexStorage, "index.jsonl")
		metaPath := filepath.Join(cfg.IndexStorage, "meta_index.json")
		urlPath := filepath.Join(cfg.IndexStorage, "urls.txt")

		finalInfo, err := os.Stat(finalPath)
		if err != nil {
			return fmt.Errorf("index not built (or storage path wrong): %w", err)
		}
		metaInfo, err := os.Stat(metaPath)
		if err != nil {
			return fmt.Errorf("meta-index missing: %w", err)
		}

		docCount, err := countLines(urlPath)
		if err != nil {
			return fmt.Errorf("url registry missing: %w", err)
		}
		tokenCount, err := countLines(finalPath)
		if err != nil {
			return fmt.Errorf("failed to read final index: %w", err)
		}

		fmt.Printf("documents:        %d\n", docCount)
		fmt.Printf("tokens:           %d\n", tokenCount)
		fmt.Printf("final index size: %d bytes\n", finalInfo.Size())
		fmt.Printf("meta-index size:  %d bytes\n", metaInfo.Size())
		fmt.Printf("last built:       %s\n", finalInfo.ModTime())
		return nil
	},
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

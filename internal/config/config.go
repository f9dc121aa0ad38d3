// Package config loads the two-key configuration this system needs
// (CORPUS_PATH, INDEX_STORAGE) plus supporting operational knobs (spill
// threshold, worker count, default k) from a KDL document, with
// environment variables overriding the document for the two required keys.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/htmlsearch/internal/types"
)

// Config is the full runtime configuration for both the indexer and the
// query engine.
type Config struct {
	// CorpusPath is the directory of HTML documents to index.
	CorpusPath string
	// IndexStorage is the directory holding the final index, meta-index,
	// and URL registry.
	IndexStorage string

	// SpillThresholdBytes is the accumulator memory footprint above which
	// a partial index is flushed (default 256 MB).
	SpillThresholdBytes int64
	// ParallelWorkers bounds the tokenization worker pool; 0 means
	// runtime.NumCPU().
	ParallelWorkers int
	// DefaultK is the number of results returned by a query when the
	// caller does not specify one.
	DefaultK int
	// Exclude holds doublestar glob patterns for corpus subdirectories to
	// skip during indexing.
	Exclude []string

	// MetricsAddr, when non-empty, exposes a Prometheus /metrics endpoint
	// during indexing and querying. Empty disables it.
	MetricsAddr string
}

// defaults returns the baseline configuration before any KDL document or
// environment override is applied.
func defaults() *Config {
	return &Config{
		SpillThresholdBytes: types.DefaultSpillThresholdBytes,
		ParallelWorkers:     runtime.NumCPU(),
		DefaultK:            types.DefaultQueryK,
		Exclude:             []string{},
	}
}

// Load reads the KDL configuration file at path (if it exists), applies it
// over the defaults, and finally lets the CORPUS_PATH/INDEX_STORAGE
// environment variables override the corresponding fields, in that order.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			if err := parseKDL(string(content), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	if v := os.Getenv("CORPUS_PATH"); v != "" {
		cfg.CorpusPath = v
	}
	if v := os.Getenv("INDEX_STORAGE"); v != "" {
		cfg.IndexStorage = v
	}

	if cfg.CorpusPath == "" {
		return nil, fmt.Errorf("CORPUS_PATH is required (set via config or environment)")
	}
	if cfg.IndexStorage == "" {
		return nil, fmt.Errorf("INDEX_STORAGE is required (set via config or environment)")
	}

	return cfg, nil
}

// parseKDL walks a parsed KDL document and applies recognized nodes onto
// cfg. Unknown nodes are ignored, so new config sections can be added
// without breaking older documents.
func parseKDL(content string, cfg *Config) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return err
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "corpus-path":
					if s, ok := firstStringArg(cn); ok {
						cfg.CorpusPath = s
					}
				case "index-storage":
					if s, ok := firstStringArg(cn); ok {
						cfg.IndexStorage = s
					}
				}
			}
		case "indexing":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "spill-threshold-mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.SpillThresholdBytes = int64(v) * 1024 * 1024
					}
				case "parallel-workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.ParallelWorkers = v
					}
				case "exclude":
					for _, arg := range cn.Arguments {
						if s, ok := arg.Value.(string); ok {
							cfg.Exclude = append(cfg.Exclude, s)
						}
					}
				}
			}
		case "query":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "default-k":
					if v, ok := firstIntArg(cn); ok {
						cfg.DefaultK = v
					}
				}
			}
		case "metrics":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "addr":
					if s, ok := firstStringArg(cn); ok {
						cfg.MetricsAddr = s
					}
				}
			}
		}
	}

	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

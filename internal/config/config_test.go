package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "htmlsearch.kdl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromKDL(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
project {
    corpus-path "/data/corpus"
    index-storage "/data/index"
}
indexing {
    spill-threshold-mb 128
    parallel-workers 4
}
query {
    default-k 3
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/data/corpus", cfg.CorpusPath)
	require.Equal(t, "/data/index", cfg.IndexStorage)
	require.Equal(t, int64(128*1024*1024), cfg.SpillThresholdBytes)
	require.Equal(t, 4, cfg.ParallelWorkers)
	require.Equal(t, 3, cfg.DefaultK)
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
project {
    corpus-path "/data/corpus"
    index-storage "/data/index"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(256*1024*1024), cfg.SpillThresholdBytes)
	require.Equal(t, 5, cfg.DefaultK)
}

func TestEnvOverridesKDL(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
project {
    corpus-path "/data/corpus"
    index-storage "/data/index"
}
`)

	t.Setenv("CORPUS_PATH", "/override/corpus")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/override/corpus", cfg.CorpusPath)
	require.Equal(t, "/data/index", cfg.IndexStorage)
}

func TestLoadMissingPathRequiresEnv(t *testing.T) {
	t.Setenv("CORPUS_PATH", "/env/corpus")
	t.Setenv("INDEX_STORAGE", "/env/index")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/env/corpus", cfg.CorpusPath)
	require.Equal(t, "/env/index", cfg.IndexStorage)
}

func TestLoadMissingEverythingErrors(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
}

package indexing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCorpusItem(t *testing.T, path string, item CorpusItem) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	data := `{"url":"` + item.URL + `","content":"` + item.Content + `"}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestWalkCorpusDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeCorpusItem(t, filepath.Join(root, "b", "doc.json"), CorpusItem{URL: "https://b/", Content: "<p>b</p>"})
	writeCorpusItem(t, filepath.Join(root, "a", "doc.json"), CorpusItem{URL: "https://a/", Content: "<p>a</p>"})

	var seen []string
	err := WalkCorpus(root, nil, func(item CorpusItem) error {
		seen = append(seen, item.URL)
		return nil
	}, func(path string, err error) {
		t.Fatalf("unexpected malformed item %s: %v", path, err)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"https://a/", "https://b/"}, seen)
}

func TestWalkCorpusExcludeGlob(t *testing.T) {
	root := t.TempDir()
	writeCorpusItem(t, filepath.Join(root, "drafts", "doc.json"), CorpusItem{URL: "https://draft/", Content: "x"})
	writeCorpusItem(t, filepath.Join(root, "doc.json"), CorpusItem{URL: "https://keep/", Content: "x"})

	var seen []string
	err := WalkCorpus(root, []string{"drafts/**"}, func(item CorpusItem) error {
		seen = append(seen, item.URL)
		return nil
	}, func(path string, err error) {
		t.Fatalf("unexpected malformed item %s: %v", path, err)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"https://keep/"}, seen)
}

func TestWalkCorpusSkipsNonJSON(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("ignore me"), 0o644))
	writeCorpusItem(t, filepath.Join(root, "doc.json"), CorpusItem{URL: "https://keep/", Content: "x"})

	var seen []string
	err := WalkCorpus(root, nil, func(item CorpusItem) error {
		seen = append(seen, item.URL)
		return nil
	}, func(path string, err error) {
		t.Fatalf("unexpected malformed item %s: %v", path, err)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"https://keep/"}, seen)
}

func TestWalkCorpusMalformedJSONSkippedNotFatal(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.json"), []byte("{not json"), 0o644))
	writeCorpusItem(t, filepath.Join(root, "good.json"), CorpusItem{URL: "https://good/", Content: "x"})

	var malformed []string
	var good []string
	err := WalkCorpus(root, nil, func(item CorpusItem) error {
		good = append(good, item.URL)
		return nil
	}, func(path string, err error) {
		malformed = append(malformed, path)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"https://good/"}, good)
	require.Len(t, malformed, 1)
}

func TestWalkCorpusMissingURLIsMalformed(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "noURL.json"), []byte(`{"content":"x"}`), 0o644))

	var malformed []string
	err := WalkCorpus(root, nil, func(item CorpusItem) error {
		t.Fatalf("should not reach onItem for %+v", item)
		return nil
	}, func(path string, err error) {
		malformed = append(malformed, path)
	})
	require.NoError(t, err)
	require.Len(t, malformed, 1)
}

func TestDocumentRegistryAssignAndPersist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "urls.txt")

	reg, err := NewDocumentRegistry(path)
	require.NoError(t, err)

	id0, err := reg.Assign("https://a/")
	require.NoError(t, err)
	require.Equal(t, uint32(0), uint32(id0))

	id1, err := reg.Assign("https://b/")
	require.NoError(t, err)
	require.Equal(t, uint32(1), uint32(id1))

	require.Equal(t, 2, reg.Count())
	require.NoError(t, reg.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "https://a/\nhttps://b/\n", string(data))
}

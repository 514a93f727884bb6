package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ExportFormat represents the JSON structure for cache export/import.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []ExportEntry     `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportEntry represents a single cache entry.
type ExportEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Failed   int
}

// Export writes the cache contents to w as JSON, sorted by key.
func Export(w io.Writer, c TranslationCache, metadata map[string]string) error {
	lister, ok := c.(Lister)
	if !ok {
		return fmt.Errorf("cache type %T does not support export", c)
	}
	data, err := lister.Entries()
	if err != nil {
		return fmt.Errorf("listing cache entries: %w", err)
	}

	entries := make([]ExportEntry, 0, len(data))
	for k, v := range data {
		entries = append(entries, ExportEntry{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ExportFormat{
		Version:    "1.0",
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:    entries,
		Metadata:   metadata,
	}); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// Import loads entries from r into c.
func Import(r io.Reader, c TranslationCache) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	result := &ImportResult{Version: export.Version, Metadata: export.Metadata}
	for _, e := range export.Entries {
		if err := c.Set(e.Key, e.Value); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}
	return result, nil
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// ExportFile exports c to path, zstd-compressed when path ends in ".zst".
func ExportFile(path string, c TranslationCache, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if !compressed(path) {
		return Export(f, c, metadata)
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := Export(zw, c, metadata); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// ImportFile imports entries from path, decompressing ".zst" files.
func ImportFile(path string, c TranslationCache) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if !compressed(path) {
		return Import(f, c)
	}

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return Import(zr, c)
}

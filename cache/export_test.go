package cache

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainCache map[string]string

func (p plainCache) Get(k string) (string, bool) { v, ok := p[k]; return v, ok }
func (p plainCache) Set(k, v string) error       { p[k] = v; return nil }

func TestExport(t *testing.T) {
	c := NewInMemoryCache(0)
	require.NoError(t, c.Set("b:fr", "deux"))
	require.NoError(t, c.Set("a:fr", "un"))

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, c, map[string]string{"target": "fr"}))

	var out ExportFormat
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "1.0", out.Version)
	assert.Equal(t, []ExportEntry{{Key: "a:fr", Value: "un"}, {Key: "b:fr", Value: "deux"}}, out.Entries)
	assert.Equal(t, "fr", out.Metadata["target"])
}

func TestExport_Unsupported(t *testing.T) {
	err := Export(&bytes.Buffer{}, plainCache{}, nil)
	assert.ErrorContains(t, err, "does not support export")
}

func TestImport(t *testing.T) {
	c := plainCache{}
	res, err := Import(strings.NewReader(`{"version":"1.0","entries":[{"key":"k","value":"v"}]}`), c)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, "v", c["k"])

	_, err = Import(strings.NewReader(`{`), c)
	assert.Error(t, err)
}

func TestExportImportFile(t *testing.T) {
	for _, name := range []string{"cache.json", "cache.json.zst"} {
		t.Run(name, func(t *testing.T) {
			src := NewInMemoryCache(0)
			require.NoError(t, src.Set("h:de", "Hallo"))

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, ExportFile(path, src, nil))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, !strings.HasSuffix(name, ".zst"), bytes.HasPrefix(raw, []byte("{")))

			dst := NewInMemoryCache(0)
			res, err := ImportFile(path, dst)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Imported)
			v, ok := dst.Get("h:de")
			assert.True(t, ok)
			assert.Equal(t, "Hallo", v)
		})
	}
}

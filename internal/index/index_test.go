// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFQN(t *testing.T) {
	tests := []struct {
		idx  Index
		want string
	}{
		{Paper, "paper_v1"},
		{Metadata, "metadata_v1"},
		{Index{Name: "paper", Version: "v2"}, "paper_v2"},
		{Index{Name: "a_b", Version: "2020-03"}, "a_b_2020-03"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.idx.FQN())
		})
	}
}

func TestConfigPath(t *testing.T) {
	got := Paper.ConfigPath("config")
	assert.Equal(t, filepath.Join("config", "index", "v1", "paper.json"), got)
}

func TestLookup(t *testing.T) {
	idx, err := Lookup("paper")
	require.NoError(t, err)
	assert.Equal(t, Paper, idx)

	idx, err = Lookup("metadata_v1")
	require.NoError(t, err)
	assert.Equal(t, Metadata, idx)

	_, err = Lookup("nope")
	assert.ErrorContains(t, err, `unknown index "nope"`)
}

func TestLookupAll(t *testing.T) {
	all, err := LookupAll(nil)
	require.NoError(t, err)
	assert.Equal(t, []Index{Paper, Metadata}, all)

	some, err := LookupAll([]string{"metadata"})
	require.NoError(t, err)
	assert.Equal(t, []Index{Metadata}, some)

	_, err = LookupAll([]string{"paper", "bogus"})
	assert.Error(t, err)
}

func TestLoadMapping(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "index", "v1")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	t.Run("valid object", func(t *testing.T) {
		body := `{"mappings":{"properties":{"paper_id":{"type":"keyword"}}}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "paper.json"), []byte(body), 0o644))

		got, err := LoadMapping(root, Paper)
		require.NoError(t, err)
		assert.JSONEq(t, body, string(got))

		m, err := Mappings(got)
		require.NoError(t, err)
		assert.JSONEq(t, `{"properties":{"paper_id":{"type":"keyword"}}}`, string(m))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadMapping(root, Metadata)
		assert.ErrorContains(t, err, "metadata_v1")
	})

	t.Run("not an object", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(`[1,2]`), 0o644))
		_, err := LoadMapping(root, Metadata)
		assert.ErrorContains(t, err, "parsing mapping")
	})

	t.Run("null", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("null\n"), 0o644))
		_, err := LoadMapping(root, Metadata)
		assert.ErrorContains(t, err, "is not a JSON object")
	})
}

func TestMappingsMissingSection(t *testing.T) {
	_, err := Mappings([]byte(`{"settings":{}}`))
	assert.ErrorContains(t, err, "no mappings section")
}

func TestShippedMappingsParse(t *testing.T) {
	root := filepath.Join("..", "..", "config")
	for _, idx := range All() {
		t.Run(idx.FQN(), func(t *testing.T) {
			body, err := LoadMapping(root, idx)
			require.NoError(t, err)
			_, err = Mappings(body)
			require.NoError(t, err)
		})
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index defines the statically known search indices and their
// settings/mapping files.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Index describes a search index by name and schema version. Descriptors are
// immutable and defined statically below.
type Index struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

var (
	// Paper holds full-text paper documents.
	Paper = Index{Name: "paper", Version: "v1"}

	// Metadata holds rows of the metadata CSV.
	Metadata = Index{Name: "metadata", Version: "v1"}
)

// All returns every known index in creation order.
func All() []Index {
	return []Index{Paper, Metadata}
}

// FQN returns the fully qualified index name, which includes both the index
// name and version (e.g. "paper_v1").
func (i Index) FQN() string {
	return i.Name + "_" + i.Version
}

func (i Index) String() string { return i.FQN() }

// ConfigPath returns the location of the index settings and mappings file
// under root: root/index/<version>/<name>.json.
func (i Index) ConfigPath(root string) string {
	return filepath.Join(root, "index", i.Version, i.Name+".json")
}

// Lookup resolves an index by short name or fully qualified name.
func Lookup(name string) (Index, error) {
	for _, idx := range All() {
		if name == idx.Name || name == idx.FQN() {
			return idx, nil
		}
	}
	return Index{}, fmt.Errorf("unknown index %q", name)
}

// LookupAll resolves every name, or returns All when names is empty.
func LookupAll(names []string) ([]Index, error) {
	if len(names) == 0 {
		return All(), nil
	}
	out := make([]Index, 0, len(names))
	for _, n := range names {
		idx, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, nil
}

// LoadMapping reads the settings and mappings file for idx. The file must hold
// a single JSON object; its raw bytes are returned for the create request.
func LoadMapping(root string, idx Index) ([]byte, error) {
	path := idx.ConfigPath(root)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping for %s: %w", idx.FQN(), err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parsing mapping %s: %w", path, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("mapping %s is not a JSON object", path)
	}
	return data, nil
}

// Mappings extracts the "mappings" section of a settings and mappings body,
// the part an existing index accepts on update.
func Mappings(body []byte) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("parsing mapping body: %w", err)
	}
	m, ok := obj["mappings"]
	if !ok {
		return nil, fmt.Errorf("mapping body has no mappings section")
	}
	return m, nil
}

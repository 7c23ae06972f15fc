// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

const (
	// PaperIDField is the paper field used as the document's external ID.
	PaperIDField = "paper_id"

	// CollectionField is added to every paper by the loader.
	CollectionField = "collection"
)

// Paper is a full-text paper document as read from disk. It is kept as a
// generic JSON object so fields the loader does not know about are indexed
// verbatim.
type Paper map[string]any

// ID returns the paper_id field.
func (p Paper) ID() (string, error) {
	v, ok := p[PaperIDField]
	if !ok {
		return "", fmt.Errorf("missing %s field", PaperIDField)
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%s must be a non-empty string, got %v", PaperIDField, v)
	}
	return id, nil
}

// PaperAuthor is an author entry inside a paper's metadata block.
type PaperAuthor struct {
	First  string   `json:"first" yaml:"first"`
	Middle []string `json:"middle,omitempty" yaml:"middle,omitempty"`
	Last   string   `json:"last" yaml:"last"`
}

// FullName returns "first last".
func (a PaperAuthor) FullName() string {
	switch {
	case a.First == "":
		return a.Last
	case a.Last == "":
		return a.First
	default:
		return a.First + " " + a.Last
	}
}

// PaperText is one paragraph of a paper's abstract or body.
type PaperText struct {
	Text    string `json:"text" yaml:"text"`
	Section string `json:"section,omitempty" yaml:"section,omitempty"`
}

// PaperView is the typed projection of a Paper used for display.
type PaperView struct {
	PaperID  string `json:"paper_id" yaml:"paper_id"`
	Metadata struct {
		Title   string        `json:"title" yaml:"title"`
		Authors []PaperAuthor `json:"authors" yaml:"authors"`
	} `json:"metadata" yaml:"metadata"`
	Abstract   []PaperText `json:"abstract" yaml:"abstract"`
	Collection string      `json:"collection,omitempty" yaml:"collection,omitempty"`
}

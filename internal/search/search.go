// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search decodes search responses from the cluster and renders them
// for the terminal or a saved query file.
package search

import (
	"encoding/json"
	"fmt"

	"github.com/pdiddy/magellan/internal/index"
	"github.com/pdiddy/magellan/pkg/types"
)

// Response is the part of a search response magellan reads.
type Response struct {
	Took     int  `json:"took"`
	TimedOut bool `json:"timed_out"`
	Hits     struct {
		Total    Total    `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []Hit    `json:"hits"`
	} `json:"hits"`
}

// Total is the hit count. Relation is "eq" or "gte".
type Total struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

// Hit is one matching document. Source is left raw and decoded according
// to the index it came from.
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// Parse decodes a raw search response.
func Parse(raw []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	return &resp, nil
}

// isMetadataIndex reports whether name resolves to the metadata index.
func isMetadataIndex(name string) bool {
	idx, err := index.Lookup(name)
	return err == nil && idx == index.Metadata
}

// Summary projects the hit onto a SearchHit. Paper sources are read through
// PaperView and metadata sources through MetadataEntry. Metadata summaries
// carry DOI and Journal and no abstract.
func (h Hit) Summary() (types.SearchHit, error) {
	sh := types.SearchHit{Index: h.Index, ID: h.ID}
	if h.Score != nil {
		sh.Score = *h.Score
	}
	if len(h.Source) == 0 {
		return sh, nil
	}

	if isMetadataIndex(h.Index) {
		var m types.MetadataEntry
		if err := json.Unmarshal(h.Source, &m); err != nil {
			return sh, fmt.Errorf("hit %s: decoding metadata: %w", h.ID, err)
		}
		sh.Title = m.Title
		sh.Authors = m.Authors
		sh.Collection = m.Collection
		sh.DOI = m.DOI
		sh.Journal = m.Journal
		return sh, nil
	}

	var p types.PaperView
	if err := json.Unmarshal(h.Source, &p); err != nil {
		return sh, fmt.Errorf("hit %s: decoding paper: %w", h.ID, err)
	}
	if p.PaperID != "" {
		sh.ID = p.PaperID
	}
	sh.Title = p.Metadata.Title
	for _, a := range p.Metadata.Authors {
		sh.Authors = append(sh.Authors, a.FullName())
	}
	for _, a := range p.Abstract {
		sh.Abstract = append(sh.Abstract, a.Text)
	}
	sh.Collection = p.Collection
	return sh, nil
}

// Summaries returns a SearchHit per hit, in response order.
func (r *Response) Summaries() ([]types.SearchHit, error) {
	out := make([]types.SearchHit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		sh, err := h.Summary()
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, nil
}

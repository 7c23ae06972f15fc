// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the magellan packages:
// cluster, load and search configuration, paper and metadata documents, and the
// summaries produced from search hits.
package types

// SearchHit summarizes one hit of a search response. It is what the CLI
// prints and what a saved query file records.
type SearchHit struct {
	// Index is the fully qualified index the hit came from.
	Index string `json:"index" yaml:"index"`

	// ID is the document's _id.
	ID string `json:"id" yaml:"id"`

	Score float64 `json:"score" yaml:"score"`

	Title string `json:"title" yaml:"title"`

	// Authors lists author names as "first last".
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Abstract holds the abstract paragraphs in order.
	Abstract []string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`

	// DOI and Journal are set for metadata hits.
	DOI     string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`
}

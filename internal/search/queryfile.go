// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/magellan/pkg/types"
)

// QueryFile is the on-disk record of a search and the hits it returned, so a
// result list can be reviewed later without querying the cluster again.
type QueryFile struct {
	Query   QueryParams       `yaml:"query"`
	Results []types.SearchHit `yaml:"results"`
	Summary QuerySummary      `yaml:"summary"`
}

// QueryParams stores the query in a serializable form.
type QueryParams struct {
	Index string `yaml:"index"`
	Query string `yaml:"query"`
	Size  int    `yaml:"size"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	// Total is the cluster's total hit count, which may exceed len(Results).
	Total     int       `yaml:"total"`
	Relation  string    `yaml:"relation,omitempty"`
	TookMS    int       `yaml:"took_ms"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves the query and its hits to a YAML file.
func WriteQueryFile(path string, params QueryParams, resp *Response, hits []types.SearchHit) error {
	qf := QueryFile{
		Query:   params,
		Results: hits,
		Summary: QuerySummary{
			Total:     resp.Hits.Total.Value,
			Relation:  resp.Hits.Total.Relation,
			TookMS:    resp.Took,
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing query file: %w", err)
	}
	return nil
}

// ReadQueryFile loads a query file written by WriteQueryFile. A file without
// a query string is rejected.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file %s: %w", path, err)
	}
	if qf.Query.Query == "" {
		return nil, fmt.Errorf("query file %s has no query", path)
	}
	return &qf, nil
}

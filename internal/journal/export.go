// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ExportYAML writes every run to w as a YAML list, newest first.
func (j *Journal) ExportYAML(ctx context.Context, w io.Writer) error {
	runs, err := j.List(ctx, 0)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []Run{}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes every run to w as an indented JSON array, newest first.
func (j *Journal) ExportJSON(ctx context.Context, w io.Writer) error {
	runs, err := j.List(ctx, 0)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []Run{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// Export writes every run to w in the named format.
func (j *Journal) Export(ctx context.Context, w io.Writer, format string) error {
	switch format {
	case FormatYAML:
		return j.ExportYAML(ctx, w)
	case FormatJSON:
		return j.ExportJSON(ctx, w)
	default:
		return fmt.Errorf("unknown export format %q (want %s or %s)", format, FormatYAML, FormatJSON)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/magellan/pkg/types"
)

// FormatPretty writes one block per hit:
//
//	---
//	ID: <paper_id>
//	Title: <title>
//	Authors: <first last>, ...
//	Abstract:
//	<paragraph>
//
// Metadata hits print DOI and Journal lines after Authors in place of the
// abstract.
func FormatPretty(w io.Writer, hits []types.SearchHit) error {
	var b strings.Builder
	for _, h := range hits {
		b.WriteString("---\n")
		fmt.Fprintf(&b, "ID: %s\n", h.ID)
		fmt.Fprintf(&b, "Title: %s\n", h.Title)
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(h.Authors, ", "))
		if isMetadataIndex(h.Index) {
			if h.DOI != "" {
				fmt.Fprintf(&b, "DOI: %s\n", h.DOI)
			}
			if h.Journal != "" {
				fmt.Fprintf(&b, "Journal: %s\n", h.Journal)
			}
			continue
		}
		b.WriteString("Abstract:\n")
		if len(h.Abstract) > 0 {
			b.WriteString(strings.Join(h.Abstract, "\n"))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// FormatJSON writes the raw response compacted onto a single line.
func FormatJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return fmt.Errorf("compacting search response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

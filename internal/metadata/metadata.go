// Package metadata parses the metadata CSV that accompanies the paper
// collections into fixed-schema entries.
package metadata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/magellan/pkg/types"
)

// Column positions in the metadata file.
const (
	colCordUID = iota
	colSHA
	colSource
	colTitle
	colDOI
	colPMCID
	colPubMedID
	colLicense
	colAbstract
	colPublishTime
	colAuthors
	colJournal
	colMicrosoftAcademicID
	colWHOCovidence
	colHasFullText
	colFullTextFile

	// NumColumns is the minimum number of columns in a row.
	NumColumns
)

const headerMarker = "cord_uid"

// ParseRow maps a CSV record onto a MetadataEntry by column position. Columns
// past the known schema are ignored.
func ParseRow(record []string) (types.MetadataEntry, error) {
	if len(record) < NumColumns {
		return types.MetadataEntry{}, fmt.Errorf("expected %d columns, got %d", NumColumns, len(record))
	}

	hasFullText, err := parseBool(record[colHasFullText])
	if err != nil {
		return types.MetadataEntry{}, fmt.Errorf("has_full_text: %w", err)
	}

	return types.MetadataEntry{
		CordUID:             strings.TrimSpace(record[colCordUID]),
		SHAs:                splitList(record[colSHA]),
		Source:              record[colSource],
		Title:               record[colTitle],
		DOI:                 record[colDOI],
		PMCID:               record[colPMCID],
		PubMedID:            record[colPubMedID],
		License:             record[colLicense],
		Abstract:            record[colAbstract],
		PublishTime:         record[colPublishTime],
		Authors:             splitList(record[colAuthors]),
		Journal:             record[colJournal],
		MicrosoftAcademicID: record[colMicrosoftAcademicID],
		WHOCovidence:        record[colWHOCovidence],
		HasFullText:         hasFullText,
		Collection:          record[colFullTextFile],
	}, nil
}

// IsHeader reports whether record is the file's header row.
func IsHeader(record []string) bool {
	return len(record) > 0 && strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff")) == headerMarker
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// splitList splits a semicolon separated field, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Reader streams entries from a metadata CSV.
type Reader struct {
	r    *csv.Reader
	line int
}

// NewReader returns a Reader over r. The header row, if present, is skipped.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return &Reader{r: cr}
}

// Read returns the next entry, or io.EOF when the input is exhausted.
func (r *Reader) Read() (types.MetadataEntry, error) {
	for {
		record, err := r.r.Read()
		if errors.Is(err, io.EOF) {
			return types.MetadataEntry{}, io.EOF
		}
		if err != nil {
			return types.MetadataEntry{}, fmt.Errorf("reading metadata: %w", err)
		}
		r.line, _ = r.r.FieldPos(0)
		if r.line == 1 && IsHeader(record) {
			continue
		}
		entry, err := ParseRow(record)
		if err != nil {
			return types.MetadataEntry{}, fmt.Errorf("metadata line %d: %w", r.line, err)
		}
		return entry, nil
	}
}

// Line returns the line number of the most recently read record.
func (r *Reader) Line() int { return r.line }

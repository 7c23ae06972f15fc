// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MetadataEntry is one row of the metadata CSV that accompanies the paper
// collections. Fields follow the column order of the file.
type MetadataEntry struct {
	// CordUID is the dataset-wide identifier and the preferred document ID.
	CordUID string `json:"cord_uid" yaml:"cord_uid"`

	// SHAs lists the hashes of the full-text files for this entry.
	SHAs []string `json:"sha" yaml:"sha"`

	// Source is the upstream source of the entry (source_x).
	Source string `json:"source" yaml:"source"`

	Title       string `json:"title" yaml:"title"`
	DOI         string `json:"doi" yaml:"doi"`
	PMCID       string `json:"pmcid" yaml:"pmcid"`
	PubMedID    string `json:"pubmed_id" yaml:"pubmed_id"`
	License     string `json:"license" yaml:"license"`
	Abstract    string `json:"abstract" yaml:"abstract"`
	PublishTime string `json:"publish_time" yaml:"publish_time"`

	// Authors lists author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	Journal             string `json:"journal" yaml:"journal"`
	MicrosoftAcademicID string `json:"microsoft_academic_id" yaml:"microsoft_academic_id"`
	WHOCovidence        string `json:"who_covidence" yaml:"who_covidence"`

	// HasFullText reports whether a full-text JSON file exists for the entry.
	HasFullText bool `json:"has_full_text" yaml:"has_full_text"`

	// Collection names the full-text subset the entry belongs to (full_text_file).
	Collection string `json:"collection" yaml:"collection"`
}

// ID returns the external document ID: cord_uid, then the first sha.
// An empty result lets the cluster assign an ID.
func (m MetadataEntry) ID() string {
	if m.CordUID != "" {
		return m.CordUID
	}
	if len(m.SHAs) > 0 {
		return m.SHAs[0]
	}
	return ""
}

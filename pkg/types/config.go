package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings for requests sent to the cluster.
type HTTPConfig struct {
	// Timeout bounds each request to the cluster (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "magellan/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClusterConfig holds the connection settings shared by every command.
type ClusterConfig struct {
	HTTPConfig `yaml:",inline"`

	// Host is the cluster hostname (default "localhost").
	Host string `json:"host" yaml:"host"`

	// Port is the cluster HTTP port (default 9200).
	Port int `json:"port" yaml:"port"`

	// Secure selects https instead of http.
	Secure bool `json:"secure" yaml:"secure"`

	// CACertPath is an optional PEM file used to verify the cluster certificate.
	CACertPath string `json:"ca_cert,omitempty" yaml:"ca_cert,omitempty"`

	// Username and Password enable basic authentication when Username is set.
	// They are loaded from a credentials file, never from flags.
	Username string `json:"-" yaml:"-"`
	Password string `json:"-" yaml:"-"`
}

// Address returns the base URL of the cluster.
func (c ClusterConfig) Address() string {
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// LoadConfig holds settings for the load command.
type LoadConfig struct {
	// DataDir is the root of the paper tree; each subdirectory is a collection.
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`

	// MetadataPath is the path to a metadata CSV file.
	MetadataPath string `json:"metadata_path,omitempty" yaml:"metadata_path,omitempty"`

	// BatchSize is the number of documents per bulk request (default 100).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// SearchConfig holds settings for the search command.
type SearchConfig struct {
	// Size is the maximum number of hits to return (default 10).
	Size int `json:"size" yaml:"size"`

	// Pretty selects the human-readable output instead of raw JSON.
	Pretty bool `json:"pretty" yaml:"pretty"`
}

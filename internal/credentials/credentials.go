// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package credentials loads cluster credentials from disk so they never appear
// on the command line or in shell history.
//
// Two sources are supported: a JSON file ({"username": "...", "password": "..."})
// named with --creds, and a secrets directory holding one plain-text file per
// value (username, password).
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credentials holds basic-auth credentials for the cluster.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// IsZero reports whether no credentials were found.
func (c Credentials) IsZero() bool {
	return c.Username == "" && c.Password == ""
}

// Load reads a JSON credentials file. Both fields are required.
func Load(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("reading credentials file: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("parsing credentials file %s: %w", path, err)
	}
	if c.Username == "" || c.Password == "" {
		return Credentials{}, fmt.Errorf("credentials file %s must set username and password", path)
	}
	return c, nil
}

// FromDir reads the username and password files in dir. A missing directory
// or missing files are not errors; FromDir returns zero Credentials.
func FromDir(dir string) (Credentials, error) {
	var c Credentials
	for name, dst := range map[string]*string{"username": &c.Username, "password": &c.Password} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Credentials{}, fmt.Errorf("reading secret %s: %w", name, err)
		}
		*dst = strings.TrimSpace(string(data))
	}
	if c.Username == "" && c.Password != "" {
		return Credentials{}, fmt.Errorf("secrets directory %s has a password but no username", dir)
	}
	return c, nil
}

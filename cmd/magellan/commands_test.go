// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/magellan/internal/cluster"
	"github.com/pdiddy/magellan/internal/index"
	"github.com/pdiddy/magellan/internal/journal"
	"github.com/pdiddy/magellan/internal/logging"
	"github.com/pdiddy/magellan/internal/search"
)

// --- helpers ---

// resetFlags returns every flag in the tree to its default. rootCmd is a
// package variable, so values set by one Execute would leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with args and returns what it printed and
// the log entries it produced.
func runCLI(t *testing.T, args ...string) (string, *observer.ObservedLogs, error) {
	t.Helper()
	resetFlags(rootCmd)

	core, logs := observer.New(zap.DebugLevel)
	prev := newLogger
	newLogger = func(logging.Options) (*zap.Logger, error) { return zap.New(core), nil }

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		newLogger = prev
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), logs, err
}

// testCluster is a fake cluster that records "METHOD /path" per request.
type testCluster struct {
	mu       sync.Mutex
	requests []string
	server   *httptest.Server
}

func newTestCluster(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, body []byte)) *testCluster {
	t.Helper()
	tc := &testCluster{}
	tc.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		tc.mu.Lock()
		tc.requests = append(tc.requests, r.Method+" "+r.URL.Path)
		tc.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handle(w, r, body)
	}))
	t.Cleanup(tc.server.Close)
	return tc
}

// args returns the connection flags for the fake.
func (tc *testCluster) args(t *testing.T) []string {
	u, err := url.Parse(tc.server.URL)
	require.NoError(t, err)
	return []string{"--host", u.Hostname(), "--port", u.Port()}
}

func (tc *testCluster) Requests() []string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return append([]string(nil), tc.requests...)
}

func journalRuns(t *testing.T, path string) []journal.Run {
	t.Helper()
	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()
	runs, err := j.List(context.Background(), 0)
	require.NoError(t, err)
	return runs
}

func writeIndexConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, idx := range index.All() {
		path := idx.ConfigPath(root)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		body := fmt.Sprintf(`{"settings":{"number_of_shards":1},"mappings":{"properties":{"%s_id":{"type":"keyword"}}}}`, idx.Name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

func writePapers(t *testing.T, ids ...string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "pmc_json")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, id := range ids {
		body := fmt.Sprintf(`{"paper_id":%q,"metadata":{"title":"Paper %s"}}`, id, id)
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte(body), 0o644))
	}
	return root
}

func writeMetadataCSV(t *testing.T) string {
	t.Helper()
	header := []string{"cord_uid", "sha", "source_x", "title", "doi", "pmcid", "pubmed_id", "license",
		"abstract", "publish_time", "authors", "journal", "Microsoft Academic Paper ID",
		"WHO #Covidence", "has_full_text", "full_text_file"}
	row := func(uid, title string) string {
		fields := make([]string, len(header))
		fields[0], fields[3] = uid, title
		return strings.Join(fields, ",")
	}
	body := strings.Join([]string{strings.Join(header, ","), row("m1", "First"), row("m2", "Second")}, "\n") + "\n"
	path := filepath.Join(t.TempDir(), "metadata.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const bulkOK = `{"took":1,"errors":false,"items":[]}`

// --- load ---

func TestLoadCommand(t *testing.T) {
	tc := newTestCluster(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		io.WriteString(w, bulkOK)
	})
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "journal.db")
	metricsPath := filepath.Join(dir, "load.prom")

	args := append(tc.args(t), "--journal", journalPath,
		"load", "-d", writePapers(t, "p1", "p2", "p3"), "-m", writeMetadataCSV(t),
		"-b", "2", "--metrics-file", metricsPath)
	_, logs, err := runCLI(t, args...)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST /paper_v1/_bulk",
		"POST /paper_v1/_bulk",
		"POST /metadata_v1/_bulk",
	}, tc.Requests())
	assert.Equal(t, 1, logs.FilterMessage("Loaded 3 papers").Len())
	assert.Equal(t, 1, logs.FilterMessage("Loaded 2 metadata entries").Len())

	runs := journalRuns(t, journalPath)
	require.Len(t, runs, 1)
	assert.Equal(t, "load", runs[0].Command)
	assert.Equal(t, []string{"paper_v1", "metadata_v1"}, runs[0].Indices)
	assert.Equal(t, journal.StatusOK, runs[0].Status)
	assert.Equal(t, 5, runs[0].Documents)
	assert.Equal(t, 3, runs[0].Batches)

	recorded := logs.FilterMessage("Recorded run").All()
	require.Len(t, recorded, 1)
	assert.Equal(t, journalPath, recorded[0].ContextMap()["journal"])

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `magellan_loader_documents_indexed_total{index="paper_v1"} 3`)
	assert.Contains(t, string(prom), `magellan_loader_documents_indexed_total{index="metadata_v1"} 2`)
}

func TestLoadCommandFailure(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	tc := newTestCluster(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 2 {
			io.WriteString(w, `{"took":1,"errors":true,"items":[
				{"index":{"_id":"p2","status":400,"error":{"type":"document_parsing_exception","reason":"bad field"}}}]}`)
			return
		}
		io.WriteString(w, bulkOK)
	})
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "journal.db")
	metricsPath := filepath.Join(dir, "load.prom")

	args := append(tc.args(t), "--journal", journalPath,
		"load", "-d", writePapers(t, "p1", "p2", "p3"), "-b", "1", "--metrics-file", metricsPath)
	_, logs, err := runCLI(t, args...)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, cluster.StatusCode(err))
	assert.Contains(t, err.Error(), "bad field")

	assert.Len(t, tc.Requests(), 2, "no bulk request after the failure")
	assert.Zero(t, logs.FilterMessage("Loaded 1 papers").Len())

	runs := journalRuns(t, journalPath)
	require.Len(t, runs, 1)
	assert.Equal(t, journal.StatusFailed, runs[0].Status)
	assert.Equal(t, 1, runs[0].Documents)
	assert.Equal(t, 1, runs[0].Batches)
	assert.Contains(t, runs[0].Error, "bad field")

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err, "metrics file is written when the load fails")
	assert.Contains(t, string(prom), `magellan_loader_batches_total{index="paper_v1",status="failed"} 1`)
	assert.Contains(t, string(prom), `magellan_loader_documents_indexed_total{index="paper_v1"} 1`)
}

func TestLoadCommandRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing to load", []string{"load"}, "nothing to load"},
		{"zero batch size", []string{"load", "-d", "papers", "--batch-size", "0"}, "batch size must be at least 1, got 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCluster(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
				io.WriteString(w, bulkOK)
			})
			journalPath := filepath.Join(t.TempDir(), "journal.db")

			args := append(tc.args(t), "--journal", journalPath)
			_, _, err := runCLI(t, append(args, tt.args...)...)
			assert.ErrorContains(t, err, tt.want)
			assert.Empty(t, tc.Requests())

			_, statErr := os.Stat(journalPath)
			assert.True(t, os.IsNotExist(statErr), "rejected flags are not journaled")
		})
	}
}

func TestLoadCommandMetricsAddrInUse(t *testing.T) {
	busy := httptest.NewServer(http.NotFoundHandler())
	defer busy.Close()
	tc := newTestCluster(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		io.WriteString(w, bulkOK)
	})

	args := append(tc.args(t), "--journal", "",
		"load", "-d", writePapers(t, "p1"), "--metrics-addr", busy.Listener.Addr().String())
	_, _, err := runCLI(t, args...)
	assert.ErrorContains(t, err, "metrics listener")
	assert.Empty(t, tc.Requests())
}

// --- init ---

func TestInitCommandSkipExisting(t *testing.T) {
	tc := newTestCluster(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		switch r.Method + " " + r.URL.Path {
		case "HEAD /paper_v1":
			w.WriteHeader(http.StatusOK)
		case "HEAD /metadata_v1":
			w.WriteHeader(http.StatusNotFound)
		case "PUT /metadata_v1":
			io.WriteString(w, `{"acknowledged":true,"index":"metadata_v1"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	journalPath := filepath.Join(t.TempDir(), "journal.db")

	args := append(tc.args(t), "--journal", journalPath, "--config-root", writeIndexConfig(t),
		"init", "--skip-existing")
	_, logs, err := runCLI(t, args...)
	require.NoError(t, err)

	assert.Equal(t, []string{"HEAD /paper_v1", "HEAD /metadata_v1", "PUT /metadata_v1"}, tc.Requests())
	done := logs.FilterMessage("Cluster initialization complete").All()
	require.Len(t, done, 1)
	assert.Equal(t, []interface{}{"metadata_v1"}, done[0].ContextMap()["created"])

	runs := journalRuns(t, journalPath)
	require.Len(t, runs, 1)
	assert.Equal(t, "init", runs[0].Command)
	assert.Equal(t, journal.StatusOK, runs[0].Status)
}

func TestInitCommandUpdateMapping(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	tc := newTestCluster(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		mu.Lock()
		bodies = append(bodies, string(body))
		mu.Unlock()
		io.WriteString(w, `{"acknowledged":true}`)
	})
	journalPath := filepath.Join(t.TempDir(), "journal.db")

	args := append(tc.args(t), "--journal", journalPath, "--config-root", writeIndexConfig(t),
		"init", "--update-mapping", "metadata")
	_, logs, err := runCLI(t, args...)
	require.NoError(t, err)

	assert.Equal(t, []string{"PUT /metadata_v1/_mapping"}, tc.Requests())
	require.Len(t, bodies, 1)
	assert.JSONEq(t, `{"properties":{"metadata_id":{"type":"keyword"}}}`, bodies[0])
	assert.Equal(t, 1, logs.FilterMessage("Mapping update complete").Len())

	runs := journalRuns(t, journalPath)
	require.Len(t, runs, 1)
	assert.Equal(t, "init --update-mapping", runs[0].Command)
	assert.Equal(t, []string{"metadata_v1"}, runs[0].Indices)
}

func TestInitCommandExistingIndexFails(t *testing.T) {
	tc := newTestCluster(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"resource_already_exists_exception","reason":"index [paper_v1/abc] already exists"},"status":400}`)
	})
	journalPath := filepath.Join(t.TempDir(), "journal.db")

	args := append(tc.args(t), "--journal", journalPath, "--config-root", writeIndexConfig(t), "init")
	_, _, err := runCLI(t, args...)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, cluster.StatusCode(err))
	assert.Equal(t, []string{"PUT /paper_v1"}, tc.Requests())

	runs := journalRuns(t, journalPath)
	require.Len(t, runs, 1)
	assert.Equal(t, journal.StatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "already exists")
}

// --- delete ---

func TestDeleteCommand(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	tc := newTestCluster(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		if r.URL.Query().Get("ignore_unavailable") == "true" {
			io.WriteString(w, `{"acknowledged":true}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"type":"index_not_found_exception","reason":"no such index [paper_v1]"},"status":404}`)
	})
	journalPath := filepath.Join(t.TempDir(), "journal.db")
	base := append(tc.args(t), "--journal", journalPath)

	_, logs, err := runCLI(t, append(base, "delete", "paper", "--ignore-missing")...)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("Deleted indices").Len())

	_, _, err = runCLI(t, append(base, "delete", "paper")...)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, cluster.StatusCode(err))

	assert.Equal(t, []string{"DELETE /paper_v1", "DELETE /paper_v1"}, tc.Requests())
	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], "ignore_unavailable=true")
	assert.Contains(t, queries[1], "ignore_unavailable=false")

	runs := journalRuns(t, journalPath)
	require.Len(t, runs, 2)
	assert.Equal(t, journal.StatusFailed, runs[0].Status, "newest first")
	assert.Contains(t, runs[0].Error, "no such index")
	assert.Equal(t, journal.StatusOK, runs[1].Status)
	assert.Equal(t, []string{"paper_v1"}, runs[1].Indices)
}

func TestDeleteCommandDefaultsToAllIndices(t *testing.T) {
	tc := newTestCluster(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		io.WriteString(w, `{"acknowledged":true}`)
	})

	_, _, err := runCLI(t, append(tc.args(t), "--journal", "", "delete")...)
	require.NoError(t, err)
	assert.Equal(t, []string{"DELETE /paper_v1", "DELETE /metadata_v1"}, tc.Requests())
}

// --- search --load ---

func TestSearchCommandLoadsSavedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	resp, err := search.Parse([]byte(`{"took":2,"hits":{"total":{"value":1,"relation":"eq"},"hits":[
		{"_index":"metadata_v1","_id":"m1","_score":1.5,"_source":{
			"cord_uid":"m1","title":"Bat coronaviruses","authors":["Doe, J"],"doi":"10.1/bat","journal":"Virol J"}}]}}`))
	require.NoError(t, err)
	hits, err := resp.Summaries()
	require.NoError(t, err)
	require.NoError(t, search.WriteQueryFile(path,
		search.QueryParams{Index: "metadata_v1", Query: "bat", Size: 10}, resp, hits))

	out, logs, err := runCLI(t, "--journal", "", "search", "--load", path)
	require.NoError(t, err)
	assert.Equal(t, "---\nID: m1\nTitle: Bat coronaviruses\nAuthors: Doe, J\nDOI: 10.1/bat\nJournal: Virol J\n", out)

	loaded := logs.FilterMessage("Loaded saved search").All()
	require.Len(t, loaded, 1)
	assert.Equal(t, "bat", loaded[0].ContextMap()["query"])
}

func TestSearchCommandArgs(t *testing.T) {
	_, _, err := runCLI(t, "--journal", "", "search")
	assert.ErrorContains(t, err, "needs a QUERY or --load FILE")

	_, _, err = runCLI(t, "--journal", "", "search", "--load", "saved.yaml", "bats")
	assert.ErrorContains(t, err, "cannot be combined with --load")
}

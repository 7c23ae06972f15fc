// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cluster translates magellan operations into calls against the
// Elasticsearch REST API: index creation and mapping updates, bulk inserts,
// query-string search, statistics and index deletion.
//
// Each operation either succeeds or returns an *Error carrying the engine's
// raw response body. There are no retries; idempotency is whatever the engine
// provides for duplicate document IDs.
package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/pdiddy/magellan/internal/httputil"
	"github.com/pdiddy/magellan/internal/index"
	"github.com/pdiddy/magellan/pkg/types"
)

const (
	// DefaultTimeout bounds each request when the config leaves it unset.
	DefaultTimeout = 60 * time.Second

	// bulkTimeout is the server-side timeout sent with bulk requests.
	bulkTimeout = 60 * time.Second
)

// Document is one document to bulk index. An empty ID lets the cluster
// assign one.
type Document struct {
	ID     string
	Source any
}

// Client talks to a single cluster.
type Client struct {
	es      *elasticsearch.Client
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Client for the cluster described by cfg. The go-elasticsearch
// retry loop is disabled so each call is a single request.
func New(cfg types.ClusterConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tr, err := httputil.NewTransport(cfg.UserAgent, cfg.CACertPath, logger)
	if err != nil {
		return nil, err
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{cfg.Address()},
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    tr,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating cluster client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{es: es, timeout: timeout, logger: logger}, nil
}

// perform runs one API call bounded by the request timeout and returns the
// response body. Non-2xx responses become *Error.
func (c *Client) perform(ctx context.Context, op, target string, call func(ctx context.Context) (*esapi.Response, error)) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := call(ctx)
	if err != nil {
		if target != "" {
			return nil, 0, fmt.Errorf("%s %s: %w", op, target, err)
		}
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("%s: reading response: %w", op, err)
	}
	if res.IsError() {
		return body, res.StatusCode, newError(op, target, res.StatusCode, body)
	}
	return body, res.StatusCode, nil
}

// Exists reports whether the index exists on the cluster.
func (c *Client) Exists(ctx context.Context, idx index.Index) (bool, error) {
	_, status, err := c.perform(ctx, "check index", idx.FQN(), func(ctx context.Context) (*esapi.Response, error) {
		return c.es.Indices.Exists([]string{idx.FQN()}, c.es.Indices.Exists.WithContext(ctx))
	})
	if status == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateIndices creates each index from its settings and mappings file under
// root. With skipExisting, indices already on the cluster are left alone;
// otherwise the cluster's "already exists" error is returned.
func (c *Client) CreateIndices(ctx context.Context, root string, indices []index.Index, skipExisting bool) ([]index.Index, error) {
	var created []index.Index
	for _, idx := range indices {
		body, err := index.LoadMapping(root, idx)
		if err != nil {
			return created, err
		}

		if skipExisting {
			exists, err := c.Exists(ctx, idx)
			if err != nil {
				return created, err
			}
			if exists {
				c.logger.Info("Index exists, skipping", zap.String("index", idx.FQN()))
				continue
			}
		}

		c.logger.Info("Creating index", zap.String("index", idx.FQN()))
		_, _, err = c.perform(ctx, "create index", idx.FQN(), func(ctx context.Context) (*esapi.Response, error) {
			return c.es.Indices.Create(idx.FQN(),
				c.es.Indices.Create.WithBody(bytes.NewReader(body)),
				c.es.Indices.Create.WithContext(ctx),
			)
		})
		if err != nil {
			return created, err
		}
		created = append(created, idx)
	}
	return created, nil
}

// UpdateMapping applies the mappings section of the index's file under root
// to the existing index. The cluster rejects changes to existing fields.
func (c *Client) UpdateMapping(ctx context.Context, root string, idx index.Index) error {
	body, err := index.LoadMapping(root, idx)
	if err != nil {
		return err
	}
	mappings, err := index.Mappings(body)
	if err != nil {
		return fmt.Errorf("%s: %w", idx.FQN(), err)
	}

	c.logger.Info("Updating mapping", zap.String("index", idx.FQN()))
	_, _, err = c.perform(ctx, "update mapping", idx.FQN(), func(ctx context.Context) (*esapi.Response, error) {
		return c.es.Indices.PutMapping([]string{idx.FQN()}, bytes.NewReader(mappings),
			c.es.Indices.PutMapping.WithContext(ctx),
		)
	})
	return err
}

// DeleteIndices deletes the given indices. With ignoreMissing, indices that do
// not exist are not an error.
func (c *Client) DeleteIndices(ctx context.Context, indices []index.Index, ignoreMissing bool) error {
	for _, idx := range indices {
		c.logger.Info("Deleting index", zap.String("index", idx.FQN()))
		_, _, err := c.perform(ctx, "delete index", idx.FQN(), func(ctx context.Context) (*esapi.Response, error) {
			return c.es.Indices.Delete([]string{idx.FQN()},
				c.es.Indices.Delete.WithIgnoreUnavailable(ignoreMissing),
				c.es.Indices.Delete.WithContext(ctx),
			)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Search runs a query-string query against idx and returns the raw response.
func (c *Client) Search(ctx context.Context, idx index.Index, query string, size int) ([]byte, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if size <= 0 {
		size = 10
	}

	reqBody, err := json.Marshal(map[string]any{
		"size": size,
		"query": map[string]any{
			"query_string": map[string]any{"query": query},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	body, _, err := c.perform(ctx, "search", idx.FQN(), func(ctx context.Context) (*esapi.Response, error) {
		return c.es.Search(
			c.es.Search.WithIndex(idx.FQN()),
			c.es.Search.WithBody(bytes.NewReader(reqBody)),
			c.es.Search.WithContext(ctx),
		)
	})
	return body, err
}

// Stats returns cluster-wide statistics, or index statistics when indices is
// non-empty, as the raw response body.
func (c *Client) Stats(ctx context.Context, indices []index.Index) ([]byte, error) {
	if len(indices) == 0 {
		body, _, err := c.perform(ctx, "cluster stats", "", func(ctx context.Context) (*esapi.Response, error) {
			return c.es.Cluster.Stats(c.es.Cluster.Stats.WithContext(ctx))
		})
		return body, err
	}

	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = idx.FQN()
	}
	body, _, err := c.perform(ctx, "index stats", "", func(ctx context.Context) (*esapi.Response, error) {
		return c.es.Indices.Stats(
			c.es.Indices.Stats.WithIndex(names...),
			c.es.Indices.Stats.WithContext(ctx),
		)
	})
	return body, err
}

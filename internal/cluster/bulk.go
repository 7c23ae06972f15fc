// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/pdiddy/magellan/internal/index"
)

type bulkAction struct {
	Index bulkMeta `json:"index"`
}

type bulkMeta struct {
	ID string `json:"_id,omitempty"`
}

// encodeBulk writes the NDJSON bulk body: an index action line followed by the
// document source for each document. Every line, including the last, ends
// with a newline.
func encodeBulk(docs []Document) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, d := range docs {
		if err := enc.Encode(bulkAction{Index: bulkMeta{ID: d.ID}}); err != nil {
			return nil, fmt.Errorf("encoding bulk action %d: %w", i, err)
		}
		if err := enc.Encode(d.Source); err != nil {
			return nil, fmt.Errorf("encoding document %q: %w", d.ID, err)
		}
	}
	return &buf, nil
}

type bulkResponse struct {
	Took   int                       `json:"took"`
	Errors bool                      `json:"errors"`
	Items  []map[string]bulkItemInfo `json:"items"`
}

type bulkItemInfo struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

// BulkIndex inserts docs into idx with a single bulk request. The request
// fails if any document is rejected; the returned *Error names the first
// rejected document and carries the raw response.
func (c *Client) BulkIndex(ctx context.Context, idx index.Index, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	body, err := encodeBulk(docs)
	if err != nil {
		return err
	}

	c.logger.Info("Bulk indexing documents",
		zap.String("index", idx.FQN()),
		zap.Int("count", len(docs)),
	)

	raw, _, err := c.perform(ctx, "bulk", idx.FQN(), func(ctx context.Context) (*esapi.Response, error) {
		return c.es.Bulk(body,
			c.es.Bulk.WithIndex(idx.FQN()),
			c.es.Bulk.WithTimeout(bulkTimeout),
			c.es.Bulk.WithContext(ctx),
		)
	})
	if err != nil {
		return err
	}

	var br bulkResponse
	if err := json.Unmarshal(raw, &br); err != nil {
		return fmt.Errorf("bulk %s: parsing response: %w", idx.FQN(), err)
	}
	if !br.Errors {
		return nil
	}
	return bulkItemError(idx, br, raw)
}

func bulkItemError(idx index.Index, br bulkResponse, raw []byte) error {
	failed := 0
	var first *bulkItemInfo
	for _, item := range br.Items {
		for _, info := range item {
			if info.Error == nil {
				continue
			}
			failed++
			if first == nil {
				info := info
				first = &info
			}
		}
	}

	e := &Error{
		Op:         "bulk",
		Index:      idx.FQN(),
		StatusCode: http.StatusOK,
		Body:       string(raw),
		Reason:     fmt.Sprintf("%d of %d documents rejected", failed, len(br.Items)),
	}
	if first != nil {
		e.StatusCode = first.Status
		e.Type = first.Error.Type
		e.Reason = fmt.Sprintf("%s; first %q: %s", e.Reason, first.ID, first.Error.Reason)
	}
	return e
}

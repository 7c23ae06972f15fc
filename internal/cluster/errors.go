// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Error is returned when the cluster rejects a request. It carries the
// engine's status code and raw response body.
type Error struct {
	// Op names the operation, e.g. "create index" or "bulk".
	Op string

	// Index is the fully qualified index name, if the operation targeted one.
	Index string

	StatusCode int

	// Type and Reason are taken from the response's error object when present.
	Type   string
	Reason string

	// Body is the raw response body.
	Body string
}

func (e *Error) Error() string {
	target := e.Op
	if e.Index != "" {
		target += " " + e.Index
	}
	msg := e.Reason
	if msg == "" {
		msg = e.Body
	}
	return fmt.Sprintf("%s: HTTP %d: %s", target, e.StatusCode, msg)
}

// Fields returns the error details as structured log fields.
func (e *Error) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("op", e.Op),
		zap.Int("status", e.StatusCode),
		zap.String("body", e.Body),
	}
	if e.Index != "" {
		fields = append(fields, zap.String("index", e.Index))
	}
	if e.Type != "" {
		fields = append(fields, zap.String("type", e.Type))
	}
	return fields
}

// StatusCode returns the cluster status code carried by err, or 0.
func StatusCode(err error) int {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}

// newError builds an Error from a failed response, extracting the error type
// and reason from the standard {"error": {...}} envelope.
func newError(op, index string, status int, body []byte) *Error {
	e := &Error{Op: op, Index: index, StatusCode: status, Body: string(body)}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Error) == 0 {
		return e
	}

	var detail struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if json.Unmarshal(envelope.Error, &detail) == nil {
		e.Type, e.Reason = detail.Type, detail.Reason
		return e
	}

	// Some endpoints return the error as a plain string.
	var s string
	if json.Unmarshal(envelope.Error, &s) == nil {
		e.Reason = s
	}
	return e
}

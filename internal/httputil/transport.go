// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP transport used to talk to the cluster.
package httputil

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Transport sets the User-Agent on every request and logs method, path,
// status and latency at debug level.
type Transport struct {
	Base      http.RoundTripper
	UserAgent string
	Logger    *zap.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.UserAgent != "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.UserAgent)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		logger.Debug("cluster request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("latency", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Debug("cluster request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", elapsed),
	)
	return resp, nil
}

// NewTransport returns a Transport over a clone of http.DefaultTransport. When
// caCertPath is set, the PEM certificates it holds are the only roots trusted
// for the cluster's TLS certificate.
func NewTransport(userAgent, caCertPath string, logger *zap.Logger) (*Transport, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()

	if caCertPath != "" {
		pem, err := os.ReadFile(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("reading CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", caCertPath)
		}
		base.TLSClientConfig = &tls.Config{
			RootCAs:    pool,
			MinVersion: tls.VersionTLS12,
		}
	}

	return &Transport{Base: base, UserAgent: userAgent, Logger: logger}, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader reads papers and metadata from disk and sends them to the
// cluster in fixed-size bulk batches.
//
// Loading is sequential. The first read, decode or bulk error stops the load
// and is returned; documents in batches already flushed stay indexed.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/magellan/internal/cluster"
	"github.com/pdiddy/magellan/internal/index"
	"github.com/pdiddy/magellan/internal/metadata"
	"github.com/pdiddy/magellan/internal/metrics"
	"github.com/pdiddy/magellan/pkg/types"
)

// DefaultBatchSize is the number of documents per bulk request.
const DefaultBatchSize = 100

// Indexer sends one batch of documents to an index. *cluster.Client
// implements it.
type Indexer interface {
	BulkIndex(ctx context.Context, idx index.Index, docs []cluster.Document) error
}

// Loader streams documents from disk into batches.
type Loader struct {
	Indexer   Indexer
	BatchSize int

	// Metrics and Logger are optional.
	Metrics *metrics.LoaderMetrics
	Logger  *zap.Logger
}

// Summary reports the outcome of a load.
type Summary struct {
	// Documents counts documents in successfully flushed batches.
	Documents int
	Batches   int
	Duration  time.Duration
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// batcher wires a Batcher to the indexer for idx, timing each flush.
func (l *Loader) batcher(idx index.Index) (*Batcher[cluster.Document], error) {
	if l.Indexer == nil {
		return nil, errors.New("loader has no indexer")
	}
	return NewBatcher(l.BatchSize, func(ctx context.Context, docs []cluster.Document) error {
		start := time.Now()
		err := l.Indexer.BulkIndex(ctx, idx, docs)
		l.Metrics.ObserveBatch(idx.FQN(), len(docs), time.Since(start), err)
		if err != nil {
			l.logger().Warn("Batch rejected",
				zap.String("index", idx.FQN()),
				zap.Int("documents", len(docs)),
				zap.Int("status", cluster.StatusCode(err)),
			)
		}
		return err
	})
}

// stopped logs how far a failed load got. Pending documents were read but
// never sent.
func (l *Loader) stopped(idx index.Index, b *Batcher[cluster.Document], err error) {
	if err == nil {
		return
	}
	l.logger().Warn("Load stopped",
		zap.String("index", idx.FQN()),
		zap.Int("indexed", b.Flushed()),
		zap.Int("unsent", b.Pending()),
	)
}

// LoadPapers indexes every .json file under root into the paper index. Files
// are visited in lexical order. Each paper gets a collection field naming
// the directory it was found in, and its paper_id becomes the document ID.
func (l *Loader) LoadPapers(ctx context.Context, root string) (Summary, error) {
	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return Summary{}, fmt.Errorf("paper directory: %w", err)
	}
	if !info.IsDir() {
		return Summary{}, fmt.Errorf("paper directory %s is not a directory", root)
	}

	b, err := l.batcher(index.Paper)
	if err != nil {
		return Summary{}, err
	}

	l.logger().Info("Loading papers", zap.String("dir", root), zap.Int("batch_size", l.BatchSize))

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := readPaper(path)
		if err != nil {
			return err
		}
		return b.Add(ctx, doc)
	})
	if err == nil {
		err = b.Close(ctx)
	}
	l.stopped(index.Paper, b, err)

	return summarize(b, start), err
}

// readPaper decodes one paper file into a bulk document.
func readPaper(path string) (cluster.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return cluster.Document{}, fmt.Errorf("opening paper: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	var paper types.Paper
	if err := dec.Decode(&paper); err != nil {
		return cluster.Document{}, fmt.Errorf("decoding paper %s: %w", path, err)
	}
	if paper == nil {
		return cluster.Document{}, fmt.Errorf("decoding paper %s: not a JSON object", path)
	}

	id, err := paper.ID()
	if err != nil {
		return cluster.Document{}, fmt.Errorf("paper %s: %w", path, err)
	}
	paper[types.CollectionField] = filepath.Base(filepath.Dir(path))

	return cluster.Document{ID: id, Source: paper}, nil
}

// LoadMetadata indexes every row of the metadata CSV at path into the
// metadata index.
func (l *Loader) LoadMetadata(ctx context.Context, path string) (Summary, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("opening metadata: %w", err)
	}
	defer f.Close()

	b, err := l.batcher(index.Metadata)
	if err != nil {
		return Summary{}, err
	}

	l.logger().Info("Loading metadata", zap.String("path", path), zap.Int("batch_size", l.BatchSize))

	err = readMetadata(ctx, metadata.NewReader(f), path, b)
	if err == nil {
		err = b.Close(ctx)
	}
	l.stopped(index.Metadata, b, err)

	return summarize(b, start), err
}

func readMetadata(ctx context.Context, r *metadata.Reader, path string, b *Batcher[cluster.Document]) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: stopped after line %d: %w", path, r.Line(), err)
		}

		entry, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if err := b.Add(ctx, cluster.Document{ID: entry.ID(), Source: entry}); err != nil {
			return err
		}
	}
}

func summarize[T any](b *Batcher[T], start time.Time) Summary {
	return Summary{
		Documents: b.Flushed(),
		Batches:   b.Batches(),
		Duration:  time.Since(start),
	}
}

// Package store persists completed call documents for clinical review.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caretone/intake-core/core/call"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store saves one document per completed call and returns a locator
// for it.
type Store interface {
	Save(ctx context.Context, doc call.Document) (string, error)
}

// FileStore writes documents as indented JSON files into a directory.
type FileStore struct {
	dir string
	now func() time.Time
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithClock overrides the filename timestamp source, mainly for tests.
func WithClock(now func() time.Time) FileStoreOption {
	return func(s *FileStore) { s.now = now }
}

// NewFileStore creates a store rooted at dir. The directory is created
// on first save.
func NewFileStore(dir string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the document to call_<id>_<timestamp>.json and returns
// the file path.
func (s *FileStore) Save(ctx context.Context, doc call.Document) (string, error) {
	ctx, span := tracer.Start(ctx, "save call document")
	defer span.End()
	span.SetAttributes(attribute.String("call.id", doc.Meta.CallID))

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fail(span, fmt.Errorf("failed to create output directory: %w", err))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fail(span, fmt.Errorf("failed to encode call document: %w", err))
	}

	filename := fmt.Sprintf("call_%s_%s.json", doc.Meta.CallID, s.now().Format("20060102_150405"))
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fail(span, fmt.Errorf("failed to write call document: %w", err))
	}

	logger.InfoContext(ctx, "call document saved", "path", path)
	return path, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

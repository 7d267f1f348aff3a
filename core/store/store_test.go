package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caretone/intake-core/core/call"
)

func TestFileStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	s := NewFileStore(dir, WithClock(func() time.Time {
		return time.Date(2025, 5, 1, 14, 30, 5, 0, time.UTC)
	}))

	c := call.New("abc123")
	c.SetReferralReason("recent falls", "")
	c.End(call.StatusCompleted, time.Now())

	path, err := s.Save(context.Background(), c.Document())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if filepath.Base(path) != "call_abc123_20250501_143005.json" {
		t.Fatalf("unexpected filename %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved document: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("saved document is not json: %v", err)
	}
	meta, ok := doc["meta"].(map[string]any)
	if !ok {
		t.Fatalf("expected meta section, got %v", doc)
	}
	if meta["call_id"] != "abc123" || meta["status"] != "completed" {
		t.Fatalf("unexpected meta %v", meta)
	}
	if doc["referral_reason"] != "recent falls" {
		t.Fatalf("expected referral reason in document, got %v", doc["referral_reason"])
	}
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	s := NewFileStore(dir)

	c := call.New("dir-test")
	if _, err := s.Save(context.Background(), c.Document()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("expected output directory to exist: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one saved document, got %d", len(entries))
	}
}

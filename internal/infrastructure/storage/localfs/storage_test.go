package localfs

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveDownloadRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	content := []byte("%PDF-1.4 test document")
	if err := store.Save(ctx, "tenant-1", "doc-1.pdf", content); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Download(ctx, "tenant-1", "doc-1.pdf")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("downloaded %q, want %q", got, content)
	}
}

func TestDownloadScopesTenant(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if err := store.Save(ctx, "tenant-1", "doc-1.pdf", []byte("data")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := store.Download(ctx, "tenant-2", "doc-1.pdf"); err == nil {
		t.Fatalf("expected miss for another tenant")
	}
}

func TestResolveRejectsEmptyParts(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := store.Download(context.Background(), "", "doc-1.pdf"); err == nil {
		t.Fatalf("expected error for empty tenant")
	}
	if _, err := store.Download(context.Background(), "tenant-1", ""); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestSanitizeContainsTraversal(t *testing.T) {
	base := t.TempDir()
	store, err := New(base)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	path, err := store.resolve("../../etc", "../passwd")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		t.Fatalf("rel: %v", err)
	}
	if strings.HasPrefix(rel, "..") {
		t.Fatalf("resolved path %q escapes base %q", path, base)
	}
}

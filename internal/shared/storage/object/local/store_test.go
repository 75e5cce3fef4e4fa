package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveOpenDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key, size, mimeType, err := store.Save(ctx, "notes.txt", strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len("hello world")) {
		t.Fatalf("expected size %d, got %d", len("hello world"), size)
	}
	if !strings.HasSuffix(key, "_notes.txt") {
		t.Fatalf("expected prefixed key, got %q", key)
	}
	if !strings.HasPrefix(mimeType, "text/plain") {
		t.Fatalf("expected text/plain mime, got %q", mimeType)
	}

	body, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("content mismatch: %q", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(ctx, key); err == nil {
		t.Fatalf("expected open to fail after delete")
	}
}

func TestDeleteMissingIsNotAnError(t *testing.T) {
	store := New(t.TempDir())

	if err := store.Delete(context.Background(), "never-existed.txt"); err != nil {
		t.Fatalf("expected nil for missing object, got %v", err)
	}
}

func TestOpenRejectsPathTraversal(t *testing.T) {
	store := New(t.TempDir())

	if _, err := store.Open(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
	if _, err := store.Open(context.Background(), "/etc/passwd"); err == nil {
		t.Fatalf("expected absolute key to be rejected")
	}
}

func TestSaveDistinctKeysForSameName(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key1, _, _, err := store.Save(ctx, "a.txt", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("save 1: %v", err)
	}
	key2, _, _, err := store.Save(ctx, "a.txt", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("save 2: %v", err)
	}
	if key1 == key2 {
		t.Fatalf("expected distinct keys, both %q", key1)
	}
}

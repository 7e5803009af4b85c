package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorePutDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/uploads/")
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	ctx := context.Background()

	url, err := s.Put(ctx, "photos/task-1/p1.jpg", strings.NewReader("jpeg-bytes"), 10, "image/jpeg")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if url != "/uploads/photos/task-1/p1.jpg" {
		t.Fatalf("unexpected url %s", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "photos", "task-1", "p1.jpg"))
	if err != nil || string(data) != "jpeg-bytes" {
		t.Fatalf("expected stored payload, got %q (%v)", data, err)
	}

	if err := s.Delete(ctx, "photos/task-1/p1.jpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "photos/task-1/p1.jpg"); err != nil {
		t.Fatalf("Delete of missing object should succeed, got %v", err)
	}
}

func TestLocalStoreStaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewLocalStore(filepath.Join(dir, "base"), "/uploads")

	if _, err := s.Put(context.Background(), "../../escape.jpg", strings.NewReader("x"), 1, "image/jpeg"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "base", "escape.jpg")); err != nil {
		t.Fatalf("expected object inside base directory: %v", err)
	}
}

func TestNewDefaultsToLocal(t *testing.T) {
	s, err := New(context.Background(), Config{LocalPath: t.TempDir(), LocalURL: "/uploads"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := s.(*LocalStore); !ok {
		t.Fatalf("expected *LocalStore, got %T", s)
	}
}

func TestNewReturnsNilStoreOnError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s, err := New(context.Background(), Config{LocalPath: filepath.Join(blocker, "photos")})
	if err == nil {
		t.Fatal("expected error when the storage path is under a file")
	}
	if s != nil {
		t.Fatalf("expected nil store on error, got %T", s)
	}
}

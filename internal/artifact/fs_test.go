package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFSPublisher_File(t *testing.T) {
	work := t.TempDir()
	store := t.TempDir()

	if err := os.WriteFile(filepath.Join(work, "result.txt"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewFSPublisher(store, work)
	dst, err := p.Publish(context.Background(), "build:pkg", "result.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read published artifact: %v", err)
	}
	if string(data) != "data" {
		t.Errorf("expected data, got %q", data)
	}

	// Двоеточие в имени job не попадает в путь хранилища.
	if filepath.Base(filepath.Dir(dst)) != "build_pkg" {
		t.Errorf("expected sanitized job dir, got %s", dst)
	}
}

func TestFSPublisher_Dir(t *testing.T) {
	work := t.TempDir()
	store := t.TempDir()

	sub := filepath.Join(work, "result", "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewFSPublisher(store, work)
	dst, err := p.Publish(context.Background(), "job", "result/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "nested", "a.txt")); err != nil {
		t.Errorf("nested file not copied: %v", err)
	}
}

func TestFSPublisher_Missing(t *testing.T) {
	p := NewFSPublisher(t.TempDir(), t.TempDir())

	_, err := p.Publish(context.Background(), "job", "nope.bin")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	name, err := store.SaveStream("equipment/12/photo.png", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("save stream: %v", err)
	}
	if name != "equipment/12/photo.png" {
		t.Fatalf("unexpected stored name: %s", name)
	}

	file, err := store.Open(name)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "payload" {
		t.Fatalf("unexpected content: %s", raw)
	}
}

func TestLocalStorageConfinesTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	if _, err := store.SaveStream("../escape.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("save stream: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); err != nil {
		t.Fatalf("expected file inside base dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt")); !os.IsNotExist(err) {
		t.Fatalf("file escaped base dir: %v", err)
	}
}

func TestLocalStorageRemoveMissingFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	if err := store.Remove("missing.png"); err != nil {
		t.Fatalf("remove missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "missing.png")); !os.IsNotExist(err) {
		t.Fatalf("unexpected stat result: %v", err)
	}
}

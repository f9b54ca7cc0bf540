package blobstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndDelete(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/uploads")
	if err != nil {
		t.Fatal(err)
	}

	url, err := store.Save("duty-slips/DS100/start-km.jpg", strings.NewReader("fake-jpeg"))
	if err != nil {
		t.Fatal(err)
	}
	if url != "http://localhost:8080/uploads/duty-slips/DS100/start-km.jpg" {
		t.Errorf("unexpected url %q", url)
	}

	data, err := os.ReadFile(filepath.Join(store.Root(), "duty-slips", "DS100", "start-km.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "fake-jpeg" {
		t.Errorf("stored content mismatch: %q", data)
	}

	if err := store.Delete("duty-slips/DS100/start-km.jpg"); err != nil {
		t.Fatal(err)
	}
	// deleting again is not an error
	if err := store.Delete("duty-slips/DS100/start-km.jpg"); err != nil {
		t.Fatal(err)
	}
}

func TestURLKey(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/uploads")
	if err != nil {
		t.Fatal(err)
	}

	key, ok := store.URLKey("http://localhost:8080/uploads/drivers/D001/profile.png")
	if !ok || key != "drivers/D001/profile.png" {
		t.Errorf("got %q, %v", key, ok)
	}

	if _, ok := store.URLKey("http://elsewhere/other/path.png"); ok {
		t.Error("unrelated url should not resolve to a key")
	}
}

func TestSaveRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root, "http://localhost:8080/uploads")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Save("../escape.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
		t.Error("traversal key should be cleaned into the root")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape.txt")); err == nil {
		t.Error("blob escaped the store root")
	}
}

package fsutil

import (
	"path/filepath"
	"testing"
)

func TestMemoryCreateAndReadBack(t *testing.T) {
	fs := NewMemoryFileSystem()

	w, err := fs.Create("out/frame.png")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := fs.ReadFile("out/frame.png")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("read back %q, want payload", data)
	}
}

func TestMemoryReadMissingFile(t *testing.T) {
	fs := NewMemoryFileSystem()
	if _, err := fs.ReadFile("nope.png"); err == nil {
		t.Error("ReadFile on missing file succeeded")
	}
}

func TestMemoryMkdirAllCreatesParents(t *testing.T) {
	fs := NewMemoryFileSystem()
	if err := fs.MkdirAll("a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, dir := range []string{"a", "a/b", "a/b/c"} {
		if !fs.Exists(dir) {
			t.Errorf("directory %s missing", dir)
		}
	}
}

func TestMemoryStat(t *testing.T) {
	fs := NewMemoryFileSystem()
	w, _ := fs.Create("f.bin")
	w.Write([]byte{1, 2, 3})
	w.Close()

	info, err := fs.Stat("f.bin")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 3 {
		t.Errorf("size = %d, want 3", info.Size())
	}
	if info.IsDir() {
		t.Error("file reported as directory")
	}
}

func TestOSFileSystemRoundTrip(t *testing.T) {
	fs := OSFileSystem{}
	dir := t.TempDir()

	sub := filepath.Join(dir, "plots")
	if err := fs.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	path := filepath.Join(sub, "x.txt")
	w, err := fs.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w.Write([]byte("hi"))
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !fs.Exists(path) {
		t.Error("Exists false for written file")
	}
	data, err := fs.ReadFile(path)
	if err != nil || string(data) != "hi" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
}

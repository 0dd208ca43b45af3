package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"
)

func TestFindFileCaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()

	testFiles := []string{
		"Level2D_1.json",
		"LEVEL2D_2.JSON",
		"level2d_3.json",
	}
	for _, filename := range testFiles {
		path := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	tests := []struct {
		name          string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{"exact match", "Level2D_1.json", true, "Level2D_1.json"},
		{"lowercase search", "level2d_1.json", true, "Level2D_1.json"},
		{"mixed case search for uppercase file", "Level2D_2.json", true, "LEVEL2D_2.JSON"},
		{"uppercase search for lowercase file", "LEVEL2D_3.JSON", true, "level2d_3.json"},
		{"file not found", "Level2D_9.json", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := FindFileCaseInsensitive(tmpDir, tt.searchName)

			if !tt.shouldFind {
				if err == nil {
					t.Errorf("Expected error for non-existent file, but got path: %s", path)
				}
				if !errors.Is(err, fs.ErrNotExist) {
					t.Errorf("Expected fs.ErrNotExist, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected to find file, but got error: %v", err)
			}
			if got := filepath.Base(path); got != tt.expectedMatch {
				t.Errorf("Expected filename %s, got %s", tt.expectedMatch, got)
			}
			if _, err := os.Stat(path); err != nil {
				t.Errorf("Returned path does not exist: %s", path)
			}
		})
	}
}

func TestRealFS(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Level2D_2.json", "Level2D_10.json", "notes.txt", "LEVEL2D_1.JSON"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "Level2D_99.json"), 0755); err != nil {
		t.Fatal(err)
	}

	fsys := NewRealFS(dir)
	if fsys.IsEmbedded() {
		t.Error("RealFS should not be embedded")
	}

	names, err := fsys.Glob("Level2D_*.json")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	expected := []string{"LEVEL2D_1.JSON", "Level2D_10.json", "Level2D_2.json"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Glob = %v, expected %v", names, expected)
	}

	data, err := fsys.ReadFile("level2d_1.json")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "LEVEL2D_1.JSON" {
		t.Errorf("ReadFile returned %q", data)
	}

	if _, err := fsys.ReadFile("missing.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}

func TestEmbedFS(t *testing.T) {
	mapFS := fstest.MapFS{
		"samples/Level2D_1.json": {Data: []byte("one")},
		"samples/Level2D_2.json": {Data: []byte("two")},
		"samples/readme.md":      {Data: []byte("readme")},
	}

	fsys := NewEmbedFS(mapFS, "samples")
	if !fsys.IsEmbedded() {
		t.Error("EmbedFS should be embedded")
	}

	names, err := fsys.Glob("level2d_*.json")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"Level2D_1.json", "Level2D_2.json"}) {
		t.Errorf("Unexpected glob result: %v", names)
	}

	data, err := fsys.ReadFile("/LEVEL2D_2.JSON")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "two" {
		t.Errorf("ReadFile returned %q", data)
	}

	if _, err := fsys.ReadFile("Level2D_3.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}

func TestGlob_InvalidPattern(t *testing.T) {
	fsys := NewRealFS(t.TempDir())
	if _, err := fsys.Glob("[abc"); err == nil {
		t.Error("Expected error for malformed pattern")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Level2D_1.json")

	if err := WriteFileAtomic(path, []byte("first"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("Expected overwritten contents, got %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Temp files should be cleaned up, found %d entries", len(entries))
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.json")
	dst := filepath.Join(dir, "b.json")
	if err := os.WriteFile(src, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "data" {
		t.Errorf("Copied contents = %q", data)
	}

	if err := CopyFile(filepath.Join(dir, "missing"), dst); err == nil {
		t.Error("Expected error for missing source")
	}
}

// Package fileutil は実ファイルシステムと埋め込みファイルシステムのステージファイルを統一的に扱う
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FindFileCaseInsensitive はディレクトリ内のファイルを大文字小文字を無視して検索する
// Windowsで作成された "level2d_3.JSON" のようなファイルも見つけられる
//
// Example:
//
//	path, err := FindFileCaseInsensitive("Assets/Levels2D", "Level2D_1.json")
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	name, ok := matchName(entries, filename)
	if !ok {
		return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
	}
	return filepath.Join(dir, name), nil
}

func matchName(entries []fs.DirEntry, filename string) (string, bool) {
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), filename) {
			return entry.Name(), true
		}
	}
	return "", false
}

// FileSystem はステージファイルの読み込み元を抽象化する
type FileSystem interface {
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// Glob はパターンに一致するファイル名をソートして返す（大文字小文字を無視）
	Glob(pattern string) ([]string, error)
	// IsEmbedded は埋め込みファイルシステムかどうかを返す
	IsEmbedded() bool
}

// RealFS はディレクトリ上の実ファイルにアクセスする
type RealFS struct {
	dir string
}

// NewRealFS は実ファイルシステム用のFileSystemを作成する
func NewRealFS(dir string) *RealFS {
	return &RealFS{dir: dir}
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	p := filepath.Join(r.dir, cleanName(name))
	if data, err := os.ReadFile(p); err == nil {
		return data, nil
	}
	actual, err := FindFileCaseInsensitive(filepath.Dir(p), filepath.Base(p))
	if err != nil {
		return nil, err
	}
	return os.ReadFile(actual)
}

func (r *RealFS) Glob(pattern string) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}
	return globEntries(entries, pattern)
}

func (r *RealFS) IsEmbedded() bool {
	return false
}

// Dir はベースディレクトリを返す
func (r *RealFS) Dir() string {
	return r.dir
}

// EmbedFS は埋め込みファイルシステム（embed.FS など）にアクセスする
type EmbedFS struct {
	fsys fs.FS
	dir  string
}

// NewEmbedFS は埋め込みファイルシステム用のFileSystemを作成する
// dir は fsys 内のディレクトリ（"/" 区切り）
func NewEmbedFS(fsys fs.FS, dir string) *EmbedFS {
	if dir == "" {
		dir = "."
	}
	return &EmbedFS{fsys: fsys, dir: dir}
}

func (e *EmbedFS) ReadFile(name string) ([]byte, error) {
	p := path.Join(e.dir, strings.ReplaceAll(cleanName(name), "\\", "/"))
	if data, err := fs.ReadFile(e.fsys, p); err == nil {
		return data, nil
	}
	entries, err := fs.ReadDir(e.fsys, path.Dir(p))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path.Dir(p), err)
	}
	actual, ok := matchName(entries, path.Base(p))
	if !ok {
		return nil, fmt.Errorf("file not found: %s: %w", name, fs.ErrNotExist)
	}
	return fs.ReadFile(e.fsys, path.Join(path.Dir(p), actual))
}

func (e *EmbedFS) Glob(pattern string) ([]string, error) {
	entries, err := fs.ReadDir(e.fsys, e.dir)
	if err != nil {
		return nil, err
	}
	return globEntries(entries, pattern)
}

func (e *EmbedFS) IsEmbedded() bool {
	return true
}

// 先頭の "/" や "\" を除去
func cleanName(name string) string {
	return strings.TrimPrefix(strings.TrimPrefix(name, "/"), "\\")
}

func globEntries(entries []fs.DirEntry, pattern string) ([]string, error) {
	lower := strings.ToLower(pattern)
	if _, err := path.Match(lower, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := path.Match(lower, strings.ToLower(entry.Name())); ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// WriteFileAtomic は一時ファイルに書き込んでから名前を変更する
// 書き込み途中で中断されても既存のファイルは壊れない
func WriteFileAtomic(name string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(name)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, name); err != nil {
		return fmt.Errorf("failed to rename %s: %w", name, err)
	}
	return nil
}

// CopyFile はファイルの内容をコピーする
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return WriteFileAtomic(dst, data, 0o644)
}

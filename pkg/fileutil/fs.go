// Package fileutil provides case-insensitive file access for scripts and
// sprite images, over either the real file system or any fs.FS.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// FileSystem resolves names relative to a base directory. When the exact
// name does not exist, the last path element is matched case-insensitively.
type FileSystem interface {
	// Open opens the named file.
	Open(name string) (fs.File, error)
	// ReadFile reads the named file.
	ReadFile(name string) ([]byte, error)
	// FindFile returns the actual path of filename inside dir.
	FindFile(dir, filename string) (string, error)
	// Glob returns the files in dir whose extension matches ext, ignoring case.
	Glob(dir, ext string) ([]string, error)
	// BasePath returns the directory names are resolved against.
	BasePath() string
}

// DirFS is a FileSystem backed by an fs.FS.
type DirFS struct {
	fsys     fs.FS
	basePath string
}

// NewRealFS creates a FileSystem rooted at basePath on disk.
func NewRealFS(basePath string) *DirFS {
	if basePath == "" {
		basePath = "."
	}
	return &DirFS{fsys: os.DirFS(basePath), basePath: basePath}
}

// NewFS creates a FileSystem over fsys, such as an embed.FS or fstest.MapFS.
// label is reported by BasePath.
func NewFS(fsys fs.FS, label string) *DirFS {
	return &DirFS{fsys: fsys, basePath: label}
}

func (d *DirFS) Open(name string) (fs.File, error) {
	actual, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	return d.fsys.Open(actual)
}

func (d *DirFS) ReadFile(name string) ([]byte, error) {
	actual, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(d.fsys, actual)
}

func (d *DirFS) FindFile(dir, filename string) (string, error) {
	return FindFileCaseInsensitiveFS(d.fsys, cleanName(dir), filename)
}

func (d *DirFS) Glob(dir, ext string) ([]string, error) {
	entries, err := fs.ReadDir(d.fsys, cleanName(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(path.Ext(entry.Name()), ext) {
			files = append(files, path.Join(cleanName(dir), entry.Name()))
		}
	}
	return files, nil
}

func (d *DirFS) BasePath() string {
	return d.basePath
}

// resolve returns the fs path for name, falling back to a case-insensitive
// match of its last element.
func (d *DirFS) resolve(name string) (string, error) {
	clean := cleanName(name)
	if !fs.ValidPath(clean) {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	if _, err := fs.Stat(d.fsys, clean); err == nil {
		return clean, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	return FindFileCaseInsensitiveFS(d.fsys, path.Dir(clean), path.Base(clean))
}

// cleanName converts backslashes and strips leading separators so that
// script-supplied names form valid fs paths.
func cleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "."
	}
	return path.Clean(name)
}

// FindFileCaseInsensitive searches dir on disk for filename, ignoring case.
//
//	path, err := FindFileCaseInsensitive("assets", "Hero.PNG")
//	// finds "hero.png", "HERO.PNG", ...
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	found, err := FindFileCaseInsensitiveFS(os.DirFS(dir), ".", filename)
	if err != nil {
		return "", err
	}
	return dir + string(os.PathSeparator) + found, nil
}

// FindFileCaseInsensitiveFS searches dir in fsys for filename, ignoring case.
// The returned path uses forward slashes.
func FindFileCaseInsensitiveFS(fsys fs.FS, dir, filename string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), filename) {
			return path.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
}

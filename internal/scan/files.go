// Package scan turns folders, drops and flat file lists into a flat list of image files.
package scan

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path"
	"strings"
)

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// RawFile is one discovered file blob. Path is the slash separated location the file was
// reached through and is what discovery deduplicates on.
type RawFile struct {
	Name         string
	Path         string
	RelativePath string // folder-relative hint from a flat picker, may be empty
	Size         int64

	open func() (io.ReadCloser, error)
}

// NewRawFile creates a RawFile whose contents come from open.
func NewRawFile(name, p string, size int64, open func() (io.ReadCloser, error)) RawFile {
	return RawFile{
		Name: name,
		Path: p,
		Size: size,
		open: open,
	}
}

// FileFromFS creates a RawFile backed by the file at p in fsys.
func FileFromFS(fsys fs.FS, p string) (RawFile, error) {
	info, err := fs.Stat(fsys, p)
	if err != nil {
		return RawFile{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return RawFile{}, fmt.Errorf("%s is a directory", p)
	}
	return NewRawFile(info.Name(), p, info.Size(), func() (io.ReadCloser, error) {
		return fsys.Open(p)
	}), nil
}

// Open opens the file contents for reading.
func (f RawFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, errors.New("raw file has no content source")
	}
	return f.open()
}

// FolderHint returns the first segment of RelativePath, or "" when there is no hint.
func (f RawFile) FolderHint() string {
	rel := strings.Trim(strings.ReplaceAll(f.RelativePath, "\\", "/"), "/")
	if rel == "" {
		return ""
	}
	first, _, found := strings.Cut(rel, "/")
	if !found {
		// a bare filename carries no folder
		return ""
	}
	return first
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// IsImage checks if a filename has one of the supported image extensions.
func IsImage(n string) bool {
	if n == "" {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(strings.ReplaceAll(n, "\\", "/")))]
}

// FilterImages returns the files whose names pass IsImage, keeping their order.
func FilterImages(files []RawFile) []RawFile {
	out := make([]RawFile, 0, len(files))
	for _, f := range files {
		if IsImage(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

func logWith(logger LoggerFunc, format string, args ...interface{}) {
	if logger != nil {
		logger(fmt.Sprintf(format, args...))
		return
	}
	log.Printf(format, args...)
}

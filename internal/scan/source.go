package scan

import (
	"context"
	"errors"
)

// ErrUnsupportedSource is returned by capability checks when a source kind cannot be
// produced in the current environment. Callers fall back to a FileListSource.
var ErrUnsupportedSource = errors.New("unsupported source kind")

// Kind tells files and directories apart.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Handle is a directory or file handle, as handed out by a native folder picker or a drop.
type Handle interface {
	Kind() Kind
	Name() string
	// File resolves a file handle to its blob.
	File(ctx context.Context) (RawFile, error)
	// Children lists a directory handle in enumeration order.
	Children(ctx context.Context) ([]Handle, error)
}

// Entry is a filesystem entry exposed by a drop payload.
type Entry interface {
	Name() string
	IsDir() bool
	File(ctx context.Context) (RawFile, error)
	// NewReader starts reading the children of a directory entry.
	NewReader() EntryReader
}

// EntryReader hands out the children of a directory entry in chunks.
// An empty chunk means the directory is exhausted.
type EntryReader interface {
	ReadEntries(ctx context.Context) ([]Entry, error)
}

// SourceKind tags the Source variants.
type SourceKind int

const (
	SourceDirectory SourceKind = iota
	SourceDrop
	SourceFileList
)

func (k SourceKind) String() string {
	switch k {
	case SourceDirectory:
		return "directory"
	case SourceDrop:
		return "drop"
	case SourceFileList:
		return "file-list"
	default:
		return "unknown"
	}
}

// Source is one of DirectorySource, DropSource or FileListSource.
type Source interface {
	Kind() SourceKind
}

// DirectorySource is a folder chosen through a native directory picker.
type DirectorySource struct {
	Handle Handle
}

// Kind implements Source.
func (DirectorySource) Kind() SourceKind { return SourceDirectory }

// DropSource is a drag-and-drop payload. Handles take precedence over Entries; when neither
// is present the payload is just the flat Files list.
type DropSource struct {
	Handles []Handle
	Entries []Entry
	Files   []RawFile
}

// Kind implements Source.
func (DropSource) Kind() SourceKind { return SourceDrop }

// FileListSource is the flat multi-file fallback picker. Files carry RelativePath hints.
type FileListSource struct {
	Files []RawFile
}

// Kind implements Source.
func (FileListSource) Kind() SourceKind { return SourceFileList }

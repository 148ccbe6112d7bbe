package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// DefaultChunkSize is how many children an entry reader hands out per ReadEntries call.
const DefaultChunkSize = 100

// fsHandle is a Handle over a path inside an fs.FS. base prefixes reported file paths so
// files from different roots never collide during deduplication.
type fsHandle struct {
	fsys fs.FS
	p    string
	name string
	base string
	kind Kind
}

// NewHandle returns a Handle for root inside fsys. name is the label the handle reports;
// when empty the base name of root is used.
func NewHandle(fsys fs.FS, root, name string) (Handle, error) {
	return newFSHandle(fsys, root, name, "")
}

func newFSHandle(fsys fs.FS, root, name, base string) (*fsHandle, error) {
	info, err := fs.Stat(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("opening handle %s: %w", root, err)
	}
	if name == "" {
		name = info.Name()
	}
	kind := KindFile
	if info.IsDir() {
		kind = KindDirectory
	}
	return &fsHandle{fsys: fsys, p: root, name: name, base: base, kind: kind}, nil
}

func (h *fsHandle) Kind() Kind   { return h.kind }
func (h *fsHandle) Name() string { return h.name }

func (h *fsHandle) File(ctx context.Context) (RawFile, error) {
	if err := ctx.Err(); err != nil {
		return RawFile{}, err
	}
	if h.kind != KindFile {
		return RawFile{}, fmt.Errorf("%s is not a file", h.name)
	}
	f, err := FileFromFS(h.fsys, h.p)
	if err != nil {
		return RawFile{}, err
	}
	f.Name = h.name
	f.Path = path.Join(h.base, h.p)
	return f, nil
}

// Children lists the directory in the order the underlying listing returns it.
func (h *fsHandle) Children(ctx context.Context) ([]Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.kind != KindDirectory {
		return nil, fmt.Errorf("%s is not a directory", h.name)
	}
	dirents, err := readDirUnsorted(h.fsys, h.p)
	out := make([]Handle, 0, len(dirents))
	for _, d := range dirents {
		kind := KindFile
		if d.IsDir() {
			kind = KindDirectory
		}
		out = append(out, &fsHandle{
			fsys: h.fsys,
			p:    path.Join(h.p, d.Name()),
			name: d.Name(),
			base: h.base,
			kind: kind,
		})
	}
	return out, err
}

func readDirUnsorted(fsys fs.FS, p string) ([]fs.DirEntry, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rdf, ok := f.(fs.ReadDirFile)
	if !ok {
		return fs.ReadDir(fsys, p)
	}
	return rdf.ReadDir(-1)
}

// fsEntry is an Entry over a path inside an fs.FS.
type fsEntry struct {
	fsys  fs.FS
	p     string
	name  string
	base  string
	dir   bool
	chunk int
}

// NewEntry returns an Entry for p inside fsys. Directory readers page through their
// children chunk at a time.
func NewEntry(fsys fs.FS, p string, chunk int) (Entry, error) {
	return newFSEntry(fsys, p, "", chunk)
}

func newFSEntry(fsys fs.FS, p, base string, chunk int) (*fsEntry, error) {
	info, err := fs.Stat(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("opening entry %s: %w", p, err)
	}
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &fsEntry{fsys: fsys, p: p, name: info.Name(), base: base, dir: info.IsDir(), chunk: chunk}, nil
}

func (e *fsEntry) Name() string { return e.name }
func (e *fsEntry) IsDir() bool  { return e.dir }

func (e *fsEntry) File(ctx context.Context) (RawFile, error) {
	if err := ctx.Err(); err != nil {
		return RawFile{}, err
	}
	if e.dir {
		return RawFile{}, fmt.Errorf("%s is a directory", e.name)
	}
	f, err := FileFromFS(e.fsys, e.p)
	if err != nil {
		return RawFile{}, err
	}
	f.Path = path.Join(e.base, e.p)
	return f, nil
}

func (e *fsEntry) NewReader() EntryReader {
	return &fsEntryReader{entry: e}
}

type fsEntryReader struct {
	entry *fsEntry
	dir   fs.ReadDirFile
	done  bool
}

func (r *fsEntryReader) ReadEntries(ctx context.Context) ([]Entry, error) {
	if r.done {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.entry.dir {
		r.done = true
		return nil, fmt.Errorf("%s is not a directory", r.entry.name)
	}
	if r.dir == nil {
		f, err := r.entry.fsys.Open(r.entry.p)
		if err != nil {
			r.done = true
			return nil, err
		}
		rdf, ok := f.(fs.ReadDirFile)
		if !ok {
			f.Close()
			r.done = true
			return nil, fmt.Errorf("%s cannot be listed", r.entry.name)
		}
		r.dir = rdf
	}

	batch, err := r.dir.ReadDir(r.entry.chunk)
	if err != nil || len(batch) == 0 {
		r.dir.Close()
		r.done = true
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}

	out := make([]Entry, 0, len(batch))
	for _, d := range batch {
		out = append(out, &fsEntry{
			fsys:  r.entry.fsys,
			p:     path.Join(r.entry.p, d.Name()),
			name:  d.Name(),
			base:  r.entry.base,
			dir:   d.IsDir(),
			chunk: r.entry.chunk,
		})
	}
	return out, err
}

// OpenDirectory returns a directory Handle for dir on the local filesystem. It reports
// ErrUnsupportedSource when dir is not a directory so callers can fall back to a flat list.
func OpenDirectory(dir string) (Handle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrUnsupportedSource, dir)
	}
	return newFSHandle(os.DirFS(abs), ".", filepath.Base(abs), filepath.ToSlash(abs))
}

// OpenEntry returns a drop Entry for a local file or directory.
func OpenEntry(p string, chunk int) (Entry, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, err
	}
	parent := filepath.Dir(abs)
	return newFSEntry(os.DirFS(parent), filepath.Base(abs), filepath.ToSlash(parent), chunk)
}

// FileListFromDir builds the flat list a folder-upload picker would produce: every file
// under dir, each carrying a RelativePath that starts with the folder name.
func FileListFromDir(dir string, logger LoggerFunc) ([]RawFile, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	folder := filepath.Base(abs)
	var files []RawFile

	visit := func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logWith(logger, "Skipping %s: %v", p, err)
			if d != nil && d.IsDir() && p != abs {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			logWith(logger, "Skipping %s: %v", p, err)
			return nil
		}
		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return nil
		}
		f := localFile(p, info.Size())
		f.RelativePath = path.Join(folder, filepath.ToSlash(rel))
		files = append(files, f)
		return nil
	}

	if err := filepath.WalkDir(abs, visit); err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	return files, nil
}

// FileListFromPaths turns explicit file paths into a flat list without folder hints.
// Paths that cannot be read are logged and skipped.
func FileListFromPaths(paths []string, logger LoggerFunc) []RawFile {
	files := make([]RawFile, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			logWith(logger, "Skipping %s: %v", p, err)
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			logWith(logger, "Skipping %s: %v", p, err)
			continue
		}
		if !info.Mode().IsRegular() {
			logWith(logger, "Skipping %s: not a regular file", p)
			continue
		}
		files = append(files, localFile(abs, info.Size()))
	}
	return files
}

func localFile(abs string, size int64) RawFile {
	return NewRawFile(filepath.Base(abs), filepath.ToSlash(abs), size, func() (io.ReadCloser, error) {
		return os.Open(abs)
	})
}

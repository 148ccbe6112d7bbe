package scan

import (
	"context"
	"errors"
	"fmt"
)

const (
	// DefaultFolderName is shown when a folder-shaped source has no usable name.
	DefaultFolderName = "Untitled folder"
	// NonFolderName is shown when the source was a bare set of files.
	NonFolderName = "Not a folder"
)

// Options tune a discovery run.
type Options struct {
	Logger LoggerFunc
}

// Result is the flat outcome of a discovery run. Files are unfiltered.
type Result struct {
	Files      []RawFile
	IsFolder   bool
	FolderName string
}

// DisplayName picks the label a caller shows for the discovered source.
func DisplayName(r Result) string {
	if !r.IsFolder {
		return NonFolderName
	}
	if r.FolderName == "" {
		return DefaultFolderName
	}
	return r.FolderName
}

// Discover flattens src into a list of files. Unreadable children are logged and skipped;
// only cancellation of ctx makes it fail part way.
func Discover(ctx context.Context, src Source, opts Options) (Result, error) {
	switch s := src.(type) {
	case DirectorySource:
		return discoverDirectory(ctx, s, opts)
	case DropSource:
		return discoverDrop(ctx, s, opts)
	case FileListSource:
		return discoverFileList(s), nil
	case nil:
		return Result{}, fmt.Errorf("%w: nil source", ErrUnsupportedSource)
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnsupportedSource, src)
	}
}

func discoverDirectory(ctx context.Context, s DirectorySource, opts Options) (Result, error) {
	if s.Handle == nil {
		return Result{}, fmt.Errorf("%w: directory source without a handle", ErrUnsupportedSource)
	}
	w := newWalker(opts)
	if err := w.run(ctx, []node{{handle: s.Handle}}); err != nil {
		return Result{}, err
	}
	return Result{
		Files:      w.files,
		IsFolder:   s.Handle.Kind() == KindDirectory,
		FolderName: s.Handle.Name(),
	}, nil
}

func discoverDrop(ctx context.Context, s DropSource, opts Options) (Result, error) {
	res := Result{}
	var roots []node
	switch {
	case len(s.Handles) > 0:
		for _, h := range s.Handles {
			if h == nil {
				continue
			}
			if h.Kind() == KindDirectory && !res.IsFolder {
				res.IsFolder = true
				res.FolderName = h.Name()
			}
			roots = append(roots, node{handle: h})
		}
	case len(s.Entries) > 0:
		for _, e := range s.Entries {
			if e == nil {
				continue
			}
			if e.IsDir() && !res.IsFolder {
				res.IsFolder = true
				res.FolderName = e.Name()
			}
			roots = append(roots, node{entry: e})
		}
	default:
		res.Files = append([]RawFile(nil), s.Files...)
		return res, nil
	}

	w := newWalker(opts)
	if err := w.run(ctx, roots); err != nil {
		return Result{}, err
	}
	res.Files = w.files
	return res, nil
}

func discoverFileList(s FileListSource) Result {
	res := Result{
		Files:    append([]RawFile(nil), s.Files...),
		IsFolder: true, // the fallback picker only ever selects folders
	}
	for _, f := range s.Files {
		if hint := f.FolderHint(); hint != "" {
			res.FolderName = hint
			break
		}
	}
	return res
}

// node is a pending handle or entry on the worklist. Exactly one field is set.
type node struct {
	handle Handle
	entry  Entry
}

func (n node) name() string {
	if n.handle != nil {
		return n.handle.Name()
	}
	return n.entry.Name()
}

type walker struct {
	logger LoggerFunc
	seen   map[string]bool
	files  []RawFile
}

func newWalker(opts Options) *walker {
	return &walker{
		logger: opts.Logger,
		seen:   make(map[string]bool),
	}
}

// run drains a LIFO worklist. Children are pushed in reverse so files come out in the same
// order a depth-first recursive expansion would produce.
func (w *walker) run(ctx context.Context, roots []node) error {
	stack := make([]node, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("discovery interrupted: %w", err)
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !n.isDir() {
			f, err := n.file(ctx)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return fmt.Errorf("discovery interrupted: %w", ctxErr)
				}
				logWith(w.logger, "Skipping unreadable file %s: %v", n.name(), err)
				continue
			}
			w.add(f)
			continue
		}

		children, err := n.children(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("discovery interrupted: %w", ctxErr)
			}
			// keep whatever was read before the failure
			logWith(w.logger, "Skipping unreadable directory %s: %v", n.name(), err)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}

func (w *walker) add(f RawFile) {
	if f.Path != "" {
		if w.seen[f.Path] {
			return
		}
		w.seen[f.Path] = true
	}
	w.files = append(w.files, f)
}

func (n node) isDir() bool {
	if n.handle != nil {
		return n.handle.Kind() == KindDirectory
	}
	return n.entry.IsDir()
}

func (n node) file(ctx context.Context) (RawFile, error) {
	if n.handle != nil {
		return n.handle.File(ctx)
	}
	return n.entry.File(ctx)
}

func (n node) children(ctx context.Context) ([]node, error) {
	if n.handle != nil {
		handles, err := n.handle.Children(ctx)
		out := make([]node, 0, len(handles))
		for _, h := range handles {
			if h != nil {
				out = append(out, node{handle: h})
			}
		}
		return out, err
	}
	entries, err := readAllEntries(ctx, n.entry.NewReader())
	out := make([]node, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			out = append(out, node{entry: e})
		}
	}
	return out, err
}

// readAllEntries keeps asking for chunks until an empty one arrives. A failing chunk ends
// the listing; the entries read so far, including any returned with the error, are kept.
func readAllEntries(ctx context.Context, r EntryReader) ([]Entry, error) {
	if r == nil {
		return nil, errors.New("directory entry has no reader")
	}
	var out []Entry
	for {
		chunk, err := r.ReadEntries(ctx)
		if err != nil {
			return append(out, chunk...), err
		}
		if len(chunk) == 0 {
			return out, nil
		}
		out = append(out, chunk...)
	}
}

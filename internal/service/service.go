package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"croquis/internal/scan"
)

// ErrNoPaths is returned by ResolveSource when there is nothing to load.
var ErrNoPaths = errors.New("no paths given")

// Scanner abstracts file discovery.
type Scanner interface {
	Discover(ctx context.Context, src scan.Source, logger scan.LoggerFunc) (scan.Result, error)
}

type walkScanner struct{}

func (walkScanner) Discover(ctx context.Context, src scan.Source, logger scan.LoggerFunc) (scan.Result, error) {
	return scan.Discover(ctx, src, scan.Options{Logger: logger})
}

// DefaultScanner walks sources with scan.Discover.
var DefaultScanner Scanner = walkScanner{}

// Loaded is a discovered and filtered source, ready to be installed.
type Loaded struct {
	Files      []scan.RawFile
	FolderName string // display name, never empty
	IsFolder   bool
	Skipped    int // discovered files that were not images
}

// Service is the main entry point for source loading.
type Service struct {
	FileScan Scanner
	Logger   func(string)
}

// NewService constructs a new Service. A nil scanner means DefaultScanner.
func NewService(fileScan Scanner, logger func(string)) *Service {
	if fileScan == nil {
		fileScan = DefaultScanner
	}
	return &Service{
		FileScan: fileScan,
		Logger:   logger,
	}
}

func (s *Service) log(msg string) {
	if s.Logger != nil {
		s.Logger(msg)
		return
	}
	log.Print(msg)
}

// Load discovers every file reachable from src and keeps the images.
func (s *Service) Load(ctx context.Context, src scan.Source) (Loaded, error) {
	res, err := s.FileScan.Discover(ctx, src, func(msg string) { s.log(fmt.Sprintf("discover: %s", msg)) })
	if err != nil {
		return Loaded{}, fmt.Errorf("loading %s source: %w", sourceLabel(src), err)
	}
	images := scan.FilterImages(res.Files)
	loaded := Loaded{
		Files:      images,
		FolderName: scan.DisplayName(res),
		IsFolder:   res.IsFolder,
		Skipped:    len(res.Files) - len(images),
	}
	s.log(fmt.Sprintf("Loaded %d image(s) from %q (%d skipped)", len(images), loaded.FolderName, loaded.Skipped))
	return loaded, nil
}

func sourceLabel(src scan.Source) string {
	if src == nil {
		return "empty"
	}
	return src.Kind().String()
}

// SourceOptions controls how ResolveSource turns paths into a Source.
type SourceOptions struct {
	Flat   bool // build a flat FileListSource like a folder-upload picker
	Chunk  int  // directory page size for drop entries
	Logger scan.LoggerFunc
}

// ResolveSource maps command line paths to a discovery source. A single directory becomes a
// DirectorySource; anything else is dropped as a set of entries. Flat turns every argument
// into one FileListSource.
func ResolveSource(paths []string, opts SourceOptions) (scan.Source, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	if opts.Chunk <= 0 {
		opts.Chunk = scan.DefaultChunkSize
	}
	if opts.Flat {
		return flatSource(paths, opts.Logger)
	}

	if len(paths) == 1 {
		h, err := scan.OpenDirectory(paths[0])
		if err == nil {
			return scan.DirectorySource{Handle: h}, nil
		}
		if !errors.Is(err, scan.ErrUnsupportedSource) {
			return nil, err
		}
	}

	entries := make([]scan.Entry, 0, len(paths))
	for _, p := range paths {
		e, err := scan.OpenEntry(p, opts.Chunk)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", p, err)
		}
		entries = append(entries, e)
	}
	return scan.DropSource{Entries: entries}, nil
}

func flatSource(paths []string, logger scan.LoggerFunc) (scan.Source, error) {
	var files []scan.RawFile
	var loose []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", p, err)
		}
		if !info.IsDir() {
			loose = append(loose, p)
			continue
		}
		listed, err := scan.FileListFromDir(p, logger)
		if err != nil {
			return nil, err
		}
		files = append(files, listed...)
	}
	files = append(files, scan.FileListFromPaths(loose, logger)...)
	return scan.FileListSource{Files: files}, nil
}

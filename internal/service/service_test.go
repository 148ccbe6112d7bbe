package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"croquis/internal/scan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	res   scan.Result
	err   error
	calls int
}

func (f *fakeScanner) Discover(ctx context.Context, src scan.Source, logger scan.LoggerFunc) (scan.Result, error) {
	f.calls++
	logger("fake scan")
	return f.res, f.err
}

func rawFiles(names ...string) []scan.RawFile {
	out := make([]scan.RawFile, 0, len(names))
	for _, n := range names {
		out = append(out, scan.NewRawFile(n, "mem/"+n, 1, nil))
	}
	return out
}

func testLogger(t *testing.T) func(string) {
	return func(msg string) { t.Logf("ServiceTestLogger: %s", msg) }
}

func TestLoadFiltersImages(t *testing.T) {
	fs := &fakeScanner{res: scan.Result{
		Files:      rawFiles("a.png", "notes.txt", "b.JPEG", "c"),
		IsFolder:   true,
		FolderName: "poses",
	}}
	svc := NewService(fs, testLogger(t))

	loaded, err := svc.Load(context.Background(), scan.FileListSource{})
	require.NoError(t, err)
	assert.Equal(t, 1, fs.calls)
	assert.Equal(t, "poses", loaded.FolderName)
	assert.True(t, loaded.IsFolder)
	assert.Equal(t, 2, loaded.Skipped)
	require.Len(t, loaded.Files, 2)
	assert.Equal(t, "a.png", loaded.Files[0].Name)
	assert.Equal(t, "b.JPEG", loaded.Files[1].Name)
}

func TestLoadDisplayNames(t *testing.T) {
	tests := []struct {
		name string
		res  scan.Result
		want string
	}{
		{"folder", scan.Result{IsFolder: true, FolderName: "hands"}, "hands"},
		{"unnamed folder", scan.Result{IsFolder: true}, scan.DefaultFolderName},
		{"loose files", scan.Result{FolderName: "ignored"}, scan.NonFolderName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeScanner{res: tt.res}, testLogger(t))
			loaded, err := svc.Load(context.Background(), scan.DropSource{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, loaded.FolderName)
			assert.Empty(t, loaded.Files)
		})
	}
}

func TestLoadWrapsScanErrors(t *testing.T) {
	svc := NewService(&fakeScanner{err: context.Canceled}, testLogger(t))
	_, err := svc.Load(context.Background(), scan.DropSource{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "drop")
}

func TestLoadUnsupportedSource(t *testing.T) {
	svc := NewService(nil, testLogger(t))
	_, err := svc.Load(context.Background(), nil)
	assert.ErrorIs(t, err, scan.ErrUnsupportedSource)
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func TestResolveSource(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "figures")
	other := filepath.Join(base, "faces")
	writeTree(t, root, map[string]string{
		"a.png":     "a",
		"b.txt":     "b",
		"sub/c.jpg": "c",
	})
	writeTree(t, other, map[string]string{"d.gif": "d"})
	loose := filepath.Join(base, "e.webp")
	require.NoError(t, os.WriteFile(loose, []byte("e"), 0644))

	svc := NewService(nil, testLogger(t))
	load := func(t *testing.T, paths []string, opts SourceOptions) Loaded {
		t.Helper()
		src, err := ResolveSource(paths, opts)
		require.NoError(t, err)
		loaded, err := svc.Load(context.Background(), src)
		require.NoError(t, err)
		return loaded
	}
	fileNames := func(l Loaded) []string {
		var out []string
		for _, f := range l.Files {
			out = append(out, f.Name)
		}
		return out
	}

	t.Run("single directory", func(t *testing.T) {
		src, err := ResolveSource([]string{root}, SourceOptions{})
		require.NoError(t, err)
		assert.Equal(t, scan.SourceDirectory, src.Kind())

		l := load(t, []string{root}, SourceOptions{})
		assert.Equal(t, "figures", l.FolderName)
		assert.ElementsMatch(t, []string{"a.png", "c.jpg"}, fileNames(l))
		assert.Equal(t, 1, l.Skipped)
	})

	t.Run("single file is dropped", func(t *testing.T) {
		src, err := ResolveSource([]string{loose}, SourceOptions{})
		require.NoError(t, err)
		assert.Equal(t, scan.SourceDrop, src.Kind())

		l := load(t, []string{loose}, SourceOptions{})
		assert.False(t, l.IsFolder)
		assert.Equal(t, scan.NonFolderName, l.FolderName)
		assert.Equal(t, []string{"e.webp"}, fileNames(l))
	})

	t.Run("several paths", func(t *testing.T) {
		l := load(t, []string{loose, other, root}, SourceOptions{Chunk: 1, Logger: scan.LoggerFunc(testLogger(t))})
		assert.True(t, l.IsFolder)
		assert.Equal(t, "faces", l.FolderName)
		assert.ElementsMatch(t, []string{"e.webp", "d.gif", "a.png", "c.jpg"}, fileNames(l))
	})

	t.Run("flat", func(t *testing.T) {
		src, err := ResolveSource([]string{root, loose}, SourceOptions{Flat: true})
		require.NoError(t, err)
		assert.Equal(t, scan.SourceFileList, src.Kind())

		l := load(t, []string{root, loose}, SourceOptions{Flat: true})
		assert.True(t, l.IsFolder)
		assert.Equal(t, "figures", l.FolderName)
		assert.ElementsMatch(t, []string{"a.png", "c.jpg", "e.webp"}, fileNames(l))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := ResolveSource(nil, SourceOptions{})
		assert.True(t, errors.Is(err, ErrNoPaths))

		_, err = ResolveSource([]string{filepath.Join(base, "missing")}, SourceOptions{})
		assert.Error(t, err)

		_, err = ResolveSource([]string{filepath.Join(base, "missing")}, SourceOptions{Flat: true})
		assert.Error(t, err)
	})
}

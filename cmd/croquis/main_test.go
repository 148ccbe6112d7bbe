package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"croquis/internal/config"
	"croquis/internal/slideshow"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommandC executes a cobra command and captures its output.
func executeCommandC(root *cobra.Command, args ...string) (string, string, error) {
	actualStdout := new(bytes.Buffer)
	actualStderr := new(bytes.Buffer)
	root.SetOut(actualStdout)
	root.SetErr(actualStderr)
	root.SetArgs(args)

	err := root.Execute()

	return actualStdout.String(), actualStderr.String(), err
}

// testEnv builds the real Env but ticks every millisecond, and remembers the config it saw.
func testEnv(t *testing.T, seen *config.Config) func(config.Config, func(string)) (*Env, error) {
	return func(cfg config.Config, _ func(string)) (*Env, error) {
		if seen != nil {
			*seen = cfg
		}
		env, err := newEnv(cfg, func(msg string) { t.Logf("CLITestLogger: %s", msg) })
		if err != nil {
			return nil, err
		}
		env.NewTicker = func(time.Duration) slideshow.Ticker {
			return slideshow.NewTimeTicker(time.Millisecond)
		}
		return env, nil
	}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func sketchDir(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "gesture")
	writeTree(t, root, map[string]string{
		"pose10.png":     "a",
		"pose2.jpg":      "b",
		"notes.txt":      "c",
		"sub/pose1.webp": "d",
	})
	return root
}

func TestRootHelp(t *testing.T) {
	stdout, stderr, err := executeCommandC(NewRootCmd(testEnv(t, nil)), "--help")
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "croquis [command]")
	for _, sub := range []string{"scan", "play", "run", "gui", "config"} {
		assert.Contains(t, stdout, sub)
	}
}

func TestScanCommand(t *testing.T) {
	dir := sketchDir(t)

	t.Run("name order", func(t *testing.T) {
		stdout, stderr, err := executeCommandC(NewRootCmd(testEnv(t, nil)), "scan", dir)
		require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
		assert.Contains(t, stdout, "gesture: 3 image(s), 1 other file(s) skipped")

		i1 := strings.Index(stdout, "pose1.webp")
		i2 := strings.Index(stdout, "pose2.jpg")
		i10 := strings.Index(stdout, "pose10.png")
		require.True(t, i1 > 0 && i2 > 0 && i10 > 0, stdout)
		assert.Less(t, i1, i2)
		assert.Less(t, i2, i10)
	})

	t.Run("flat list", func(t *testing.T) {
		stdout, _, err := executeCommandC(NewRootCmd(testEnv(t, nil)), "scan", "--flat", dir)
		require.NoError(t, err)
		assert.Contains(t, stdout, "gesture: 3 image(s)")
	})

	t.Run("loose files", func(t *testing.T) {
		stdout, _, err := executeCommandC(NewRootCmd(testEnv(t, nil)), "scan",
			filepath.Join(dir, "pose2.jpg"), filepath.Join(dir, "notes.txt"))
		require.NoError(t, err)
		assert.Contains(t, stdout, "Not a folder: 1 image(s), 1 other file(s) skipped")
	})

	t.Run("bolt store", func(t *testing.T) {
		stdout, _, err := executeCommandC(NewRootCmd(testEnv(t, nil)), "scan", "--store", "bolt", "--order", "random", dir)
		require.NoError(t, err)
		assert.Contains(t, stdout, "3 image(s)")
		for _, name := range []string{"pose1.webp", "pose2.jpg", "pose10.png"} {
			assert.Contains(t, stdout, name)
		}
	})

	t.Run("empty folder", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "blank")
		writeTree(t, empty, map[string]string{"readme.md": "x"})
		stdout, _, err := executeCommandC(NewRootCmd(testEnv(t, nil)), "scan", empty)
		require.NoError(t, err)
		assert.Contains(t, stdout, "No image files found.")
	})

	t.Run("missing path", func(t *testing.T) {
		_, _, err := executeCommandC(NewRootCmd(testEnv(t, nil)), "scan", filepath.Join(dir, "nope"))
		assert.Error(t, err)
	})
}

func TestConfigAndFlags(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "croquis.yaml")
	storeDir := t.TempDir()
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"draw_seconds: 120\nbreak_seconds: 0\norder: random\nlocator_store: bolt\nstore_dir: "+storeDir+"\n"), 0644))
	dir := sketchDir(t)

	var seen config.Config
	_, _, err := executeCommandC(NewRootCmd(testEnv(t, &seen)), "scan", "--config", cfgPath, "--draw", "45", dir)
	require.NoError(t, err)
	assert.Equal(t, 45, seen.DrawSeconds)
	assert.Equal(t, 0, seen.BreakSeconds)
	assert.Equal(t, "random", seen.Order.String())
	assert.Equal(t, config.StoreBolt, seen.LocatorStore)

	// the scratch ledger is gone once the command returns
	entries, err := os.ReadDir(storeDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	tests := [][]string{
		{"scan", "--draw", "0", dir},
		{"scan", "--break", "601", dir},
		{"scan", "--order", "shuffle", dir},
		{"scan", "--store", "redis", dir},
		{"scan", "--chunk", "0", dir},
	}
	for _, args := range tests {
		t.Run(strings.Join(args[1:3], " "), func(t *testing.T) {
			_, _, err := executeCommandC(NewRootCmd(testEnv(t, nil)), args...)
			assert.Error(t, err)
		})
	}
}

func TestPlayCommand(t *testing.T) {
	dir := sketchDir(t)

	stdout, stderr, err := executeCommandC(NewRootCmd(testEnv(t, nil)), "play", "--draw", "2", "--break", "1", dir)
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "gesture: 3 image(s), draw 2s, break 1s, name order")
	assert.Contains(t, stdout, "[1/3] pose1.webp  00:02")
	assert.Contains(t, stdout, "[2/3] pose2.jpg  00:02")
	assert.Contains(t, stdout, "[3/3] pose10.png  00:02")
	assert.Equal(t, 2, strings.Count(stdout, "break 00:01"))
	assert.Equal(t, 1, strings.Count(stdout, "Session finished."))
}

func TestPlayWithoutImages(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "blank")
	writeTree(t, empty, map[string]string{"readme.md": "x"})

	stdout, _, err := executeCommandC(NewRootCmd(testEnv(t, nil)), "play", empty)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No image files found.")
	assert.NotContains(t, stdout, "Session finished.")
}

func TestRunScreenQuits(t *testing.T) {
	dir := sketchDir(t)

	tests := map[string][]string{
		"folder":          {"run", dir},
		"unreadable path": {"run", "--flat", os.DevNull},
		"no paths":        {"run"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			root := NewRootCmd(testEnv(t, nil))
			root.SetIn(strings.NewReader("q"))

			errc := make(chan error, 1)
			go func() {
				_, _, err := executeCommandC(root, args...)
				errc <- err
			}()
			select {
			case err := <-errc:
				assert.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("session screen did not quit")
			}
		})
	}
}

func TestConfigCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "saved.yaml")

	stdout, _, err := executeCommandC(NewRootCmd(testEnv(t, nil)), "config", "--draw", "90", "--order", "random", "--store", "bolt", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Saved settings to "+out)

	cfg, err := config.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.DrawSeconds)
	assert.Equal(t, config.Defaults().BreakSeconds, cfg.BreakSeconds)
	assert.Equal(t, "random", cfg.Order.String())
	assert.Equal(t, config.StoreBolt, cfg.LocatorStore)

	_, _, err = executeCommandC(NewRootCmd(testEnv(t, nil)), "config")
	assert.Error(t, err)
}

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Tolerance is the absolute tolerance for float32 gradient comparisons.
const Tolerance = 1e-6

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// WriteSpec writes a CUE graph definition into a fresh temp directory and
// returns the file path.
func WriteSpec(t testing.TB, content string) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), "graphs.cue", content)
}

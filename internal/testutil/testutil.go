// Package testutil provides small helpers shared by the test suites of
// the other packages in this module.
package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// TempDir creates a temporary directory and returns its path alongside
// a cleanup function that removes it.
func TempDir(t *testing.T) (string, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "coregit-")
	require.NoError(t, err)

	return dir, func() {
		_ = os.RemoveAll(dir)
	}
}

// TempFile creates a temporary file and returns it alongside a cleanup
// function that closes and removes it.
func TempFile(t *testing.T) (*os.File, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "coregit-")
	require.NoError(t, err)

	return f, func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}
}

package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTextFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "requirement.md")
	require.NoError(t, os.WriteFile(p, []byte("\ufeffUsers can reset passwords"), 0o600))

	got, err := ReadTextFile(p)
	require.NoError(t, err)
	assert.Equal(t, "Users can reset passwords", got)
}

func TestReadTextFile_RelativePath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("req.txt", []byte("onboarding"), 0o600))

	got, err := ReadTextFile("req.txt")
	require.NoError(t, err)
	assert.Equal(t, "onboarding", got)
}

func TestReadTextFile_Rejects(t *testing.T) {
	dir := t.TempDir()

	for _, p := range []string{"", ".", string(filepath.Separator)} {
		_, err := ReadTextFile(p)
		assert.Error(t, err, "path %q", p)
	}

	_, err := ReadTextFile(filepath.Join(dir, "nope.md"))
	assert.True(t, os.IsNotExist(err))

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o750))
	_, err = ReadTextFile(sub)
	assert.ErrorContains(t, err, "is a directory")

	bin := filepath.Join(dir, "bin.dat")
	require.NoError(t, os.WriteFile(bin, []byte{0xff, 0xfe, 0xfd}, 0o600))
	_, err = ReadTextFile(bin)
	assert.ErrorContains(t, err, "not UTF-8")

	big := filepath.Join(dir, "big.md")
	require.NoError(t, os.WriteFile(big, []byte(strings.Repeat("a", MaxTextFileBytes+1)), 0o600))
	_, err = ReadTextFile(big)
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestAtomicWriteFile_ReplacesContent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "exports", "transcript.md")

	require.NoError(t, AtomicWriteFile(p, []byte("first"), 0o600))
	require.NoError(t, AtomicWriteFile(p, []byte("second"), 0o600))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	entries, err := os.ReadDir(filepath.Dir(p))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

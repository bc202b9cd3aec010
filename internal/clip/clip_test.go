package clip

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCopier(t *testing.T, nativeErr error, tty bool) (*Copier, *bytes.Buffer) {
	t.Helper()
	var term bytes.Buffer
	return &Copier{
		native:   func(string) error { return nativeErr },
		terminal: &term,
		isTTY:    func() bool { return tty },
		tempDir:  t.TempDir(),
	}, &term
}

func TestCopy_Native(t *testing.T) {
	c, term := testCopier(t, nil, true)
	res, err := c.Copy("hello")
	require.NoError(t, err)
	assert.Equal(t, MethodNative, res.Method)
	assert.Empty(t, res.FilePath)
	assert.Zero(t, term.Len())
	assert.Equal(t, "📋 Transcript copied to clipboard.", res.String())
}

func TestCopy_OSC52Fallback(t *testing.T) {
	t.Setenv("TMUX", "")
	t.Setenv("STY", "")
	c, term := testCopier(t, errors.New("no xclip"), true)

	res, err := c.Copy("hello")
	require.NoError(t, err)
	assert.Equal(t, MethodOSC52, res.Method)
	assert.True(t, strings.HasPrefix(term.String(), "\x1b]52;c;"), "got %q", term.String())
}

func TestCopy_FileFallback(t *testing.T) {
	c, term := testCopier(t, errors.New("no xclip"), false)

	res, err := c.Copy("### You\n\nhi\n")
	require.NoError(t, err)
	assert.Equal(t, MethodFile, res.Method)
	assert.Zero(t, term.Len())
	assert.True(t, strings.HasSuffix(res.FilePath, ".md"))
	assert.Contains(t, res.String(), res.FilePath)

	data, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "### You\n\nhi\n", string(data))
}

func TestCopy_OversizedSkipsOSC52(t *testing.T) {
	c, term := testCopier(t, errors.New("no xclip"), true)

	res, err := c.Copy(strings.Repeat("x", osc52LimitBytes+1))
	require.NoError(t, err)
	assert.Equal(t, MethodFile, res.Method)
	assert.Zero(t, term.Len())
}

func TestCopy_Empty(t *testing.T) {
	c, _ := testCopier(t, nil, true)
	_, err := c.Copy("")
	assert.Error(t, err)
}

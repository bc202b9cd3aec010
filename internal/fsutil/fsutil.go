// Package fsutil reads user-supplied text files and writes exports
// atomically.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxTextFileBytes caps files read with ReadTextFile.
const MaxTextFileBytes = 1 << 20

// ErrTooLarge is returned when a file exceeds the read limit.
var ErrTooLarge = errors.New("file is too large")

// ReadTextFile reads a UTF-8 text file of at most MaxTextFileBytes. The file
// is opened through an os.Root at its own directory, so the final name
// cannot climb out of it. A leading byte order mark is dropped.
func ReadTextFile(path string) (string, error) {
	cleaned := filepath.Clean(path)
	dir, base := filepath.Split(cleaned)
	if base == "" || base == "." || base == ".." {
		return "", fmt.Errorf("invalid file path: %q", path)
	}
	if dir == "" {
		dir = "."
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return "", err
	}
	defer root.Close()

	f, err := root.Open(base)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxTextFileBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxTextFileBytes {
		return "", fmt.Errorf("%s: %w (limit %d bytes)", path, ErrTooLarge, MaxTextFileBytes)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not UTF-8 text", path)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

// Package logfile reads storage engine LOG files and extracts regex captures from them.
package logfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pierrec/lz4/v4"
)

// CompressedExt marks LOG archives compressed with lz4.
const CompressedExt = ".lz4"

var (
	// ErrIO indicates the log could not be read or an artifact could not be written.
	ErrIO = errors.New("i/o error")
	// ErrTooLarge indicates the log exceeds the configured size limit.
	ErrTooLarge = errors.New("log file too large")
)

// IOError is a fatal input or output failure bound to a path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// NewIOError wraps err as an IOError.
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrIO and the underlying cause.
func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// Read returns the whole log as text. Files ending in .lz4 are decompressed.
// A maxSize of zero disables the size limit.
func Read(path string, maxSize uint64) (string, error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return "", NewIOError("open", path, openErr)
	}

	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedExt) {
		r = lz4.NewReader(f)
	}

	if maxSize > 0 {
		// One extra byte tells a file of exactly maxSize apart from a larger one.
		r = io.LimitReader(r, int64(maxSize)+1)
	}

	data, readErr := io.ReadAll(r)
	if readErr != nil {
		return "", NewIOError("read", path, readErr)
	}

	if maxSize > 0 && uint64(len(data)) > maxSize {
		return "", NewIOError("read", path,
			fmt.Errorf("%w: limit %s", ErrTooLarge, humanize.IBytes(maxSize)))
	}

	return string(data), nil
}

// BaseName returns the file name without directory and extension. The .lz4
// suffix is removed first so "LOG.old.lz4" and "LOG.old" share a base name.
func BaseName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, CompressedExt)

	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Extract returns the first capture group of every non-overlapping match of
// pattern in content, in document order. No match yields an empty slice.
func Extract(pattern *regexp.Regexp, content string) []string {
	matches := pattern.FindAllStringSubmatch(content, -1)
	values := make([]string, 0, len(matches))

	for _, m := range matches {
		if len(m) < 2 {
			continue
		}

		values = append(values, m[1])
	}

	return values
}

// ExtractFile reads path and extracts pattern from it.
func ExtractFile(pattern *regexp.Regexp, path string) ([]string, error) {
	content, err := Read(path, 0)
	if err != nil {
		return nil, err
	}

	return Extract(pattern, content), nil
}

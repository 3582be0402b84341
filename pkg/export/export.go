// Package export writes extracted metric series to files in the supported formats.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/rdbstat/pkg/logfile"
	"github.com/Sumatoshi-tech/rdbstat/pkg/stats"
	"github.com/Sumatoshi-tech/rdbstat/pkg/timeaxis"
)

// Optional output formats. CSV and the coordinate document are always written.
const (
	FormatHTML    = "html"
	FormatYAML    = "yaml"
	FormatProm    = "prom"
	FormatParquet = "parquet"
)

const (
	// DirPerm is the permission used for the output directory.
	DirPerm = 0o750
	// FilePerm is the permission used for written artifacts.
	FilePerm = 0o644
)

// ErrUnsupportedFormat indicates the requested output format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Metric is one extracted metric ready for export.
type Metric struct {
	Key         string
	DisplayName string
	Unit        string
	Values      []string
	Series      timeaxis.Series
	Summary     stats.Summary
}

// Dataset is everything one run extracted from one log, in selection order.
type Dataset struct {
	BaseName string
	Source   string
	Axis     timeaxis.Axis
	Metrics  []Metric
}

// Formats returns the optional formats in canonical order.
func Formats() []string {
	return []string{FormatHTML, FormatYAML, FormatProm, FormatParquet}
}

// ValidateFormats normalizes and checks requested formats, dropping duplicates.
func ValidateFormats(formats []string) ([]string, error) {
	out := make([]string, 0, len(formats))

	for _, f := range formats {
		normalized := strings.ToLower(strings.TrimSpace(f))
		if normalized == "" {
			continue
		}

		if !slices.Contains(Formats(), normalized) {
			return nil, fmt.Errorf("%w: %s (available: %s)",
				ErrUnsupportedFormat, f, strings.Join(Formats(), ", "))
		}

		if !slices.Contains(out, normalized) {
			out = append(out, normalized)
		}
	}

	return out, nil
}

// Write renders ds in format into dir and returns the written path.
func Write(format, dir string, ds *Dataset, opts Options) (string, error) {
	switch format {
	case FormatHTML:
		return WriteHTML(dir, ds, opts)
	case FormatYAML:
		return WriteYAML(dir, ds)
	case FormatProm:
		return WritePrometheus(dir, ds)
	case FormatParquet:
		return WriteParquet(dir, ds)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Options carries format-specific rendering settings.
type Options struct {
	// Theme selects the HTML page theme ("dark" or "light").
	Theme string
}

// EnsureDir creates the output directory.
func EnsureDir(dir string) error {
	mkErr := os.MkdirAll(dir, DirPerm)
	if mkErr != nil {
		return logfile.NewIOError("create dir", dir, mkErr)
	}

	return nil
}

// ArtifactPath joins dir with "{base}{suffix}".
func ArtifactPath(dir, base, suffix string) string {
	return filepath.Join(dir, base+suffix)
}

func writeFile(path string, data []byte) error {
	writeErr := os.WriteFile(path, data, FilePerm)
	if writeErr != nil {
		return logfile.NewIOError("write", path, writeErr)
	}

	return nil
}

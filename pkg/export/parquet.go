package export

import (
	"fmt"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/Sumatoshi-tech/rdbstat/pkg/logfile"
)

// ParquetSuffix is the file suffix of the Parquet series table.
const ParquetSuffix = "_series.parquet"

// SeriesRow is one coordinate of one metric in Parquet format.
type SeriesRow struct {
	Log     string  `parquet:"log,zstd"`
	Metric  string  `parquet:"metric,zstd"`
	Unit    string  `parquet:"unit,zstd"`
	Index   int32   `parquet:"index"`
	X       float64 `parquet:"x"`
	Indexed bool    `parquet:"indexed"`
	Raw     string  `parquet:"raw,zstd"`
	Value   float64 `parquet:"value"`
	Valid   bool    `parquet:"valid"`
}

// Rows flattens ds into one row per coordinate, metrics in selection order.
func Rows(ds *Dataset) []SeriesRow {
	var rows []SeriesRow

	for _, m := range ds.Metrics {
		for i, p := range m.Series.Points {
			v, parseErr := strconv.ParseFloat(p.Y, 64)

			rows = append(rows, SeriesRow{
				Log:     ds.BaseName,
				Metric:  m.Key,
				Unit:    m.Unit,
				Index:   int32(i), //nolint:gosec // a LOG never holds 2^31 cycles.
				X:       p.X,
				Indexed: m.Series.Indexed,
				Raw:     p.Y,
				Value:   v,
				Valid:   parseErr == nil,
			})
		}
	}

	return rows
}

// WriteParquet writes every coordinate as "{dir}/{base}_series.parquet".
func WriteParquet(dir string, ds *Dataset) (string, error) {
	path := ArtifactPath(dir, ds.BaseName, ParquetSuffix)

	f, createErr := os.Create(path)
	if createErr != nil {
		return "", logfile.NewIOError("create", path, createErr)
	}

	writer := parquet.NewGenericWriter[SeriesRow](f, parquet.Compression(&parquet.Zstd))

	_, writeErr := writer.Write(Rows(ds))
	if writeErr != nil {
		f.Close()

		return "", logfile.NewIOError("write", path, fmt.Errorf("write rows: %w", writeErr))
	}

	closeErr := writer.Close()
	if closeErr != nil {
		f.Close()

		return "", logfile.NewIOError("write", path, fmt.Errorf("close writer: %w", closeErr))
	}

	fileErr := f.Close()
	if fileErr != nil {
		return "", logfile.NewIOError("close", path, fileErr)
	}

	return path, nil
}

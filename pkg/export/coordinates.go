package export

import (
	"bytes"
	"fmt"

	"github.com/Sumatoshi-tech/rdbstat/pkg/tikz"
)

// CoordinatesSuffix is the file suffix of the pgfplots coordinate document.
const CoordinatesSuffix = "_coordinates.log"

// WriteCoordinates renders doc as "{dir}/{base}_coordinates.log".
func WriteCoordinates(dir, base string, doc *tikz.Document) (string, error) {
	var buf bytes.Buffer

	renderErr := doc.Render(&buf)
	if renderErr != nil {
		return "", fmt.Errorf("render coordinates: %w", renderErr)
	}

	path := ArtifactPath(dir, base, CoordinatesSuffix)

	err := writeFile(path, buf.Bytes())
	if err != nil {
		return "", err
	}

	return path, nil
}

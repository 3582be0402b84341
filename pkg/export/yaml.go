package export

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/rdbstat/pkg/stats"
)

// SummarySuffix is the file suffix of the YAML summary.
const SummarySuffix = "_summary.yaml"

type summaryDoc struct {
	Source   string          `yaml:"source"`
	BaseName string          `yaml:"base_name"`
	Cycles   int             `yaml:"cycles"`
	Axis     []float64       `yaml:"axis,flow"`
	Metrics  []summaryMetric `yaml:"metrics"`
}

type summaryMetric struct {
	Key     string        `yaml:"key"`
	Name    string        `yaml:"name"`
	Unit    string        `yaml:"unit"`
	Points  int           `yaml:"points"`
	Indexed bool          `yaml:"indexed"`
	Summary stats.Summary `yaml:"summary"`
}

// WriteYAML writes the per-metric summaries as "{dir}/{base}_summary.yaml".
func WriteYAML(dir string, ds *Dataset) (string, error) {
	doc := summaryDoc{
		Source:   ds.Source,
		BaseName: ds.BaseName,
		Cycles:   len(ds.Axis),
		Axis:     ds.Axis,
		Metrics:  make([]summaryMetric, len(ds.Metrics)),
	}

	for i, m := range ds.Metrics {
		doc.Metrics[i] = summaryMetric{
			Key:     m.Key,
			Name:    m.DisplayName,
			Unit:    m.Unit,
			Points:  m.Series.Len(),
			Indexed: m.Series.Indexed,
			Summary: m.Summary,
		}
	}

	data, marshalErr := yaml.Marshal(doc)
	if marshalErr != nil {
		return "", fmt.Errorf("marshal summary: %w", marshalErr)
	}

	path := ArtifactPath(dir, ds.BaseName, SummarySuffix)

	err := writeFile(path, data)
	if err != nil {
		return "", err
	}

	return path, nil
}

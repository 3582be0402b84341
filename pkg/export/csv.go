package export

import "strings"

// CSVSuffix returns the file suffix for one metric's CSV.
func CSVSuffix(key string) string {
	return "_" + key + ".csv"
}

// FormatCSV joins values into a single comma separated line without header or
// trailing newline. Tokens are numeric, so no quoting is ever needed.
func FormatCSV(values []string) string {
	return strings.Join(values, ",")
}

// WriteCSV writes text as "{dir}/{base}_{key}.csv".
func WriteCSV(dir, base, key, text string) (string, error) {
	path := ArtifactPath(dir, base, CSVSuffix(key))

	err := writeFile(path, []byte(text))
	if err != nil {
		return "", err
	}

	return path, nil
}

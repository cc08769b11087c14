// Package ingest normalizes raw source lines into canonical bars. It holds the
// record tokenizer, one parser per CSV format, and the source-to-parser registry
// that external orchestration calls per line.
package ingest

import "strings"

// Tokenize splits one line of comma-delimited text into its fields, trimming
// surrounding whitespace from each. It is format-independent; field counting and
// typing belong to the parsers.
func Tokenize(line string) []string {
	fields := strings.Split(line, ",")
	for i, field := range fields {
		fields[i] = strings.TrimSpace(field)
	}

	return fields
}

// IsDataLine reports whether a raw line looks like a data record rather than a
// header or blank line. Source files carry headers the parsers never see: a data
// row in every supported format starts with a digit.
func IsDataLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	return trimmed[0] >= '0' && trimmed[0] <= '9'
}

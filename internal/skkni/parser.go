// Package skkni parses delimited SKKNI exports into normalized records.
//
// The parser deliberately mirrors the splitting behaviour of the dashboard
// it replaces: rows are split on every comma, so a comma embedded inside a
// quoted value misaligns the columns of that row. That is a documented
// fidelity boundary, not a bug; rows degrade to partially-empty records
// rather than being dropped, preserving positional correspondence with the
// source file.
package skkni

import (
	"fmt"
	"strings"
)

// ParseError reports a file that could not be parsed at all. Malformed
// individual rows never produce a ParseError.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse skkni: %s", e.Reason)
}

// Source is one text payload in an ingestion batch.
type Source struct {
	Name string
	Text string
}

// SourceError tags a failed file within a batch.
type SourceError struct {
	Name string
	Err  error
}

// Parse converts raw delimited text into ordered Records. The first
// non-empty line is the header; every subsequent non-empty line yields
// exactly one record. Blank lines, including a trailing newline, are
// skipped.
func Parse(rawText string) ([]Record, error) {
	lines := strings.Split(rawText, "\n")

	headerIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, &ParseError{Reason: "no header line"}
	}

	headers := splitRow(lines[headerIdx])
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = CanonicalKey(h)
	}

	var records []Record
	for _, line := range lines[headerIdx+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := splitRow(line)
		row := make(map[string]string, len(keys))
		for i, key := range keys {
			if key == "" {
				continue
			}
			// Short rows resolve their trailing columns to "".
			if i < len(values) {
				row[key] = values[i]
			} else {
				row[key] = ""
			}
		}
		records = append(records, project(row))
	}
	return records, nil
}

// ParseAll parses a batch of files, concatenating records in submission
// order. A file that fails to parse is reported in the second return value
// and does not abort the rest of the batch.
func ParseAll(sources []Source) ([]Record, []SourceError) {
	var records []Record
	var failed []SourceError
	for _, src := range sources {
		recs, err := Parse(src.Text)
		if err != nil {
			failed = append(failed, SourceError{Name: src.Name, Err: err})
			continue
		}
		records = append(records, recs...)
	}
	return records, failed
}

// splitRow is the naive comma split: no quote protection, each value
// trimmed and stripped of quote characters.
func splitRow(line string) []string {
	parts := strings.Split(strings.TrimRight(line, "\r"), ",")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.TrimSpace(p), `"`, "")
	}
	return parts
}

// CanonicalKey normalizes a header token: lower-cased, characters outside
// [a-z0-9_ ] removed, whitespace runs collapsed to single underscores.
// "Area Fungsi Kunci" becomes "area_fungsi_kunci".
func CanonicalKey(header string) string {
	lower := strings.ToLower(strings.TrimSpace(header))
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "_")
}

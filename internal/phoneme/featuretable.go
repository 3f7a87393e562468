// Package phoneme defines the phonetic-conversion collaborator boundary and
// a loader for IPA feature-table data files.
package phoneme

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// FeatureTable holds articulatory feature rows keyed by IPA segment.
// Data files ship with either a "seg" or an "ipa" header for the segment
// column depending on the distribution; both are accepted, and the file is
// always read as UTF-8.
type FeatureTable struct {
	features []string
	rows     map[string][]string
}

// LoadFeatureTable parses a feature-table CSV from r. The first column
// (named "seg" or "ipa") is the segment; the remaining header names are the
// feature labels.
func LoadFeatureTable(r io.Reader) (*FeatureTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read feature table: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read feature table header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("feature table header too short: %v", header)
	}
	segCol := strings.ToLower(strings.TrimSpace(header[0]))
	if segCol != "seg" && segCol != "ipa" {
		return nil, fmt.Errorf("feature table segment column must be \"seg\" or \"ipa\", got %q", header[0])
	}

	ft := &FeatureTable{
		features: append([]string(nil), header[1:]...),
		rows:     make(map[string][]string),
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read feature table row: %w", err)
		}
		if len(record) < 2 || record[0] == "" {
			continue
		}
		ft.rows[record[0]] = append([]string(nil), record[1:]...)
	}
	if len(ft.rows) == 0 {
		return nil, fmt.Errorf("feature table has no segments")
	}
	return ft, nil
}

// LoadFeatureTableFile loads a feature-table CSV from disk.
func LoadFeatureTableFile(path string) (*FeatureTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature table: %w", err)
	}
	defer f.Close()
	return LoadFeatureTable(f)
}

// Features returns the feature labels in file order.
func (ft *FeatureTable) Features() []string { return ft.features }

// Segments returns the number of known segments.
func (ft *FeatureTable) Segments() int { return len(ft.rows) }

// Lookup returns the feature values for an IPA segment.
func (ft *FeatureTable) Lookup(segment string) ([]string, bool) {
	row, ok := ft.rows[segment]
	return row, ok
}

// ipaMarks are transcription marks that carry no segment of their own.
var ipaMarks = map[rune]bool{'ˈ': true, 'ˌ': true, '.': true, '|': true, '‖': true}

// UnknownSegments returns the distinct runes of an IPA transcription that
// have no row in the table. Whitespace and stress or boundary marks are
// skipped, and segments are checked rune by rune, so the result is a
// coverage hint rather than a full segmentation.
func (ft *FeatureTable) UnknownSegments(ipa string) []string {
	var unknown []string
	seen := make(map[rune]bool)
	for _, r := range ipa {
		if unicode.IsSpace(r) || ipaMarks[r] || seen[r] {
			continue
		}
		seen[r] = true
		if _, ok := ft.rows[string(r)]; !ok {
			unknown = append(unknown, string(r))
		}
	}
	return unknown
}

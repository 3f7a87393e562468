// Package sample holds per-language practice sentence tables loaded from
// CSV datasets, and draws sentences from them by difficulty category.
package sample

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kellis/pron-engine/internal/metrics"
)

// Sentence is one practice item. Sentences are created on dataset load and
// never mutated afterwards.
type Sentence struct {
	Text      string
	WordCount int
}

// Store keeps one ordered sentence table per language code. Tables are
// replaced wholesale by Load; readers always observe either the old or the
// new table, never a partial one.
type Store struct {
	dir string
	log zerolog.Logger

	mu     sync.RWMutex
	tables map[string][]Sentence
}

// NewStore creates a Store whose datasets live under dir as
// data_<language>.csv.
func NewStore(dir string, log zerolog.Logger) *Store {
	return &Store{
		dir:    dir,
		log:    log.With().Str("component", "samples").Logger(),
		tables: make(map[string][]Sentence),
	}
}

// DataPath returns the well-known on-disk dataset path for a language.
func (s *Store) DataPath(language string) string {
	return filepath.Join(s.dir, "data_"+language+".csv")
}

// Load parses a CSV dataset from r and atomically swaps it in as the table
// for language. The header must contain a "sentence" column; the delimiter
// (";" or ",") is detected from the header line. Rows with a blank sentence
// field are dropped. Returns a *FormatError if the source is unparsable,
// the column is missing, or no usable rows remain.
func (s *Store) Load(language string, r io.Reader) error {
	table, err := parseDataset(language, r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tables[language] = table
	s.mu.Unlock()

	metrics.DatasetReloadsTotal.WithLabelValues(language).Inc()
	s.log.Info().Str("language", language).Int("sentences", len(table)).Msg("dataset loaded")
	return nil
}

// LoadFile loads the dataset at the language's well-known path.
func (s *Store) LoadFile(language string) error {
	f, err := os.Open(s.DataPath(language))
	if err != nil {
		return &FormatError{Language: language, Reason: "open dataset", Err: err}
	}
	defer f.Close()
	return s.Load(language, f)
}

// Get returns the sentence at index for language. Returns a *IndexError
// when index is outside [0, Size(language)).
func (s *Store) Get(language string, index int) (Sentence, error) {
	s.mu.RLock()
	table := s.tables[language]
	s.mu.RUnlock()

	if index < 0 || index >= len(table) {
		return Sentence{}, &IndexError{Language: language, Index: index, Size: len(table)}
	}
	return table[index], nil
}

// Size returns the number of loaded sentences for language; zero for an
// unknown language.
func (s *Store) Size(language string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[language])
}

// Languages returns the sorted set of languages with a loaded table.
func (s *Store) Languages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	langs := make([]string, 0, len(s.tables))
	for lang := range s.tables {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Persist writes raw to the language's well-known dataset path, replacing
// any prior file, then reloads the in-memory table from it. Not
// transactional: a *PersistError means nothing changed, a *ReloadError
// means the file is updated but the previous table is still being served.
func (s *Store) Persist(language string, raw []byte) error {
	path := s.DataPath(language)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PersistError{Language: language, Err: err}
	}

	// Atomic write: temp file + rename, so the watcher and concurrent
	// reloads never see a half-written dataset.
	tmp, err := os.CreateTemp(dir, ".dataset-*.tmp")
	if err != nil {
		return &PersistError{Language: language, Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &PersistError{Language: language, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &PersistError{Language: language, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &PersistError{Language: language, Err: err}
	}

	if err := s.LoadFile(language); err != nil {
		return &ReloadError{Language: language, Err: err}
	}
	return nil
}

// parseDataset reads the CSV rows into a fresh table. Runs outside the
// store lock so a slow parse never blocks readers.
func parseDataset(language string, r io.Reader) ([]Sentence, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &FormatError{Language: language, Reason: "read dataset", Err: err}
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")) // UTF-8 BOM

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &FormatError{Language: language, Reason: "read header", Err: err}
	}

	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "sentence") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, &FormatError{Language: language, Reason: `missing "sentence" column`}
	}

	var table []Sentence
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FormatError{Language: language, Reason: "read row", Err: err}
		}
		if col >= len(record) {
			continue
		}
		text := strings.TrimSpace(record[col])
		if text == "" {
			continue
		}
		table = append(table, Sentence{Text: text, WordCount: len(strings.Fields(text))})
	}

	if len(table) == 0 {
		return nil, &FormatError{Language: language, Reason: "no usable rows"}
	}
	return table, nil
}

// detectDelimiter picks ";" or "," based on which appears in the header
// line. Datasets in the wild use either.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.ContainsRune(line, ';') {
		return ';'
	}
	return ','
}

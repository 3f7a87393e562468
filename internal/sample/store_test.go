package sample

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), zerolog.Nop())
}

func TestLoad_SemicolonDelimited(t *testing.T) {
	s := newTestStore(t)
	csv := "sentence;origin\nHello there.;manual\nHow are you today?;manual\n"

	if err := s.Load("en", strings.NewReader(csv)); err != nil {
		t.Fatal(err)
	}
	if got := s.Size("en"); got != 2 {
		t.Fatalf("Size = %d, want 2", got)
	}
	first, err := s.Get("en", 0)
	if err != nil {
		t.Fatal(err)
	}
	if first.Text != "Hello there." {
		t.Errorf("first sentence = %q", first.Text)
	}
	if first.WordCount != 2 {
		t.Errorf("word count = %d, want 2", first.WordCount)
	}
}

func TestLoad_CommaDelimited(t *testing.T) {
	s := newTestStore(t)
	csv := "id,sentence\n1,Guten Morgen\n2,Wie geht es dir\n"

	if err := s.Load("de", strings.NewReader(csv)); err != nil {
		t.Fatal(err)
	}
	if got := s.Size("de"); got != 2 {
		t.Fatalf("Size = %d, want 2", got)
	}
	second, err := s.Get("de", 1)
	if err != nil {
		t.Fatal(err)
	}
	if second.WordCount != 4 {
		t.Errorf("word count = %d, want 4", second.WordCount)
	}
}

func TestLoad_MissingSentenceColumn(t *testing.T) {
	s := newTestStore(t)
	err := s.Load("en", strings.NewReader("phrase;origin\nhi;x\n"))

	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %T: %v", err, err)
	}
	if fe.Language != "en" {
		t.Errorf("Language = %q", fe.Language)
	}
}

func TestLoad_DropsBlankRows(t *testing.T) {
	s := newTestStore(t)
	csv := "sentence\nKeep me\n\n   \nAnd me\n"

	if err := s.Load("en", strings.NewReader(csv)); err != nil {
		t.Fatal(err)
	}
	if got := s.Size("en"); got != 2 {
		t.Errorf("Size = %d, want 2 (blank rows dropped)", got)
	}
}

func TestLoad_EmptyDatasetRejected(t *testing.T) {
	s := newTestStore(t)
	err := s.Load("en", strings.NewReader("sentence\n"))

	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError for empty table, got %v", err)
	}
}

func TestLoad_KeepsOldTableOnFailure(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load("en", strings.NewReader("sentence\nOriginal sentence\n")); err != nil {
		t.Fatal(err)
	}

	if err := s.Load("en", strings.NewReader("wrong_column\nx\n")); err == nil {
		t.Fatal("expected load failure")
	}

	// Readers must still see the previous table.
	if got := s.Size("en"); got != 1 {
		t.Fatalf("Size after failed load = %d, want 1", got)
	}
	sent, err := s.Get("en", 0)
	if err != nil {
		t.Fatal(err)
	}
	if sent.Text != "Original sentence" {
		t.Errorf("old table corrupted: %q", sent.Text)
	}
}

func TestGet_OutOfRange(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load("en", strings.NewReader("sentence\nOnly one\n")); err != nil {
		t.Fatal(err)
	}

	for _, idx := range []int{-1, 1, 100} {
		_, err := s.Get("en", idx)
		var ie *IndexError
		if !errors.As(err, &ie) {
			t.Errorf("Get(%d): expected *IndexError, got %v", idx, err)
		}
	}
}

func TestGet_UnknownLanguage(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("xx", 0)
	var ie *IndexError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *IndexError, got %v", err)
	}
	if ie.Size != 0 {
		t.Errorf("Size = %d, want 0", ie.Size)
	}
}

func TestPersist_WritesAndReloads(t *testing.T) {
	s := newTestStore(t)
	raw := []byte("sentence\nFresh from upload\n")

	if err := s.Persist("en", raw); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(s.DataPath("en"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(raw) {
		t.Error("persisted file does not match upload")
	}
	if got := s.Size("en"); got != 1 {
		t.Errorf("table not reloaded, Size = %d", got)
	}
}

func TestPersist_OverwritesPrior(t *testing.T) {
	s := newTestStore(t)
	if err := s.Persist("en", []byte("sentence\nOld one\nOld two\n")); err != nil {
		t.Fatal(err)
	}
	if err := s.Persist("en", []byte("sentence\nNew one\n")); err != nil {
		t.Fatal(err)
	}
	if got := s.Size("en"); got != 1 {
		t.Errorf("Size = %d, want 1 after overwrite", got)
	}
}

func TestPersist_MalformedTriggersReloadError(t *testing.T) {
	s := newTestStore(t)
	if err := s.Persist("en", []byte("sentence\nGood sentence\n")); err != nil {
		t.Fatal(err)
	}

	err := s.Persist("en", []byte("not_a_sentence_column\nx\n"))
	var re *ReloadError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ReloadError, got %T: %v", err, err)
	}

	// The on-disk file is the new (bad) one, but the in-memory table must
	// still serve the previous dataset.
	if got := s.Size("en"); got != 1 {
		t.Fatalf("Size = %d, want old table intact", got)
	}
	sent, getErr := s.Get("en", 0)
	if getErr != nil {
		t.Fatal(getErr)
	}
	if sent.Text != "Good sentence" {
		t.Errorf("old table corrupted: %q", sent.Text)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	s := newTestStore(t)
	err := s.LoadFile("en")
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
}

func TestLanguages_Sorted(t *testing.T) {
	s := newTestStore(t)
	for _, lang := range []string{"fr", "de", "en"} {
		if err := s.Load(lang, strings.NewReader("sentence\nBonjour\n")); err != nil {
			t.Fatal(err)
		}
	}
	got := s.Languages()
	want := []string{"de", "en", "fr"}
	if len(got) != len(want) {
		t.Fatalf("Languages = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Languages = %v, want %v", got, want)
		}
	}
}

func TestDataPath(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, zerolog.Nop())
	want := filepath.Join(dir, "data_en.csv")
	if got := s.DataPath("en"); got != want {
		t.Errorf("DataPath = %q, want %q", got, want)
	}
}

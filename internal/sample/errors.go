package sample

import "fmt"

// FormatError reports an unparsable dataset source or a missing required
// column.
type FormatError struct {
	Language string
	Reason   string
	Err      error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataset for %q: %s: %v", e.Language, e.Reason, e.Err)
	}
	return fmt.Sprintf("dataset for %q: %s", e.Language, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// IndexError reports an out-of-range sentence lookup.
type IndexError struct {
	Language string
	Index    int
	Size     int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("sentence index %d out of range [0,%d) for language %q", e.Index, e.Size, e.Language)
}

// EmptyDatasetError reports a selection against a language with no loaded
// sentences.
type EmptyDatasetError struct {
	Language string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("no sentences loaded for language %q", e.Language)
}

// CategoryUnsatisfiableError reports that rejection sampling exhausted its
// attempt budget without finding a sentence in the requested category.
type CategoryUnsatisfiableError struct {
	Language string
	Category int
	Attempts int
}

func (e *CategoryUnsatisfiableError) Error() string {
	return fmt.Sprintf("no category %d sentence for language %q after %d draws", e.Category, e.Language, e.Attempts)
}

// PersistError reports a failure writing an uploaded dataset to its
// per-language storage path. The in-memory table is untouched.
type PersistError struct {
	Language string
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist dataset for %q: %v", e.Language, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// ReloadError reports a failure loading a dataset after it was persisted:
// the on-disk file is updated but the previous in-memory table is still
// being served.
type ReloadError struct {
	Language string
	Err      error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("reload dataset for %q: %v", e.Language, e.Err)
}

func (e *ReloadError) Unwrap() error { return e.Err }

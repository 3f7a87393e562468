package sample

import (
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/kellis/pron-engine/internal/metrics"
)

// DefaultSelectAttempts is the floor on the rejection-sampling budget.
const DefaultSelectAttempts = 500

// Selector draws random sentences from a Store under a category
// constraint using bounded rejection sampling.
type Selector struct {
	store    *Store
	attempts int
	log      zerolog.Logger

	// intN is swapped out in tests for deterministic draws.
	intN func(n int) int
}

// NewSelector creates a Selector. attempts caps the rejection loop; values
// below 1 fall back to DefaultSelectAttempts.
func NewSelector(store *Store, attempts int, log zerolog.Logger) *Selector {
	if attempts < 1 {
		attempts = DefaultSelectAttempts
	}
	return &Selector{
		store:    store,
		attempts: attempts,
		log:      log.With().Str("component", "selector").Logger(),
		intN:     rand.IntN,
	}
}

// Select draws a uniformly random sentence for language matching category
// (CategoryAny accepts every sentence). Returns *EmptyDatasetError when no
// table is loaded, and *CategoryUnsatisfiableError when the attempt budget
// is exhausted without a match — the loop never runs unbounded, so a
// category absent from the table fails fast instead of hanging the request.
func (s *Selector) Select(language string, category int) (Sentence, error) {
	size := s.store.Size(language)
	if size == 0 {
		return Sentence{}, &EmptyDatasetError{Language: language}
	}

	// Scale the budget with the table so sparse categories in large tables
	// still get a fair number of draws.
	budget := s.attempts
	if scaled := 4 * size; scaled > budget {
		budget = scaled
	}

	for attempt := 1; attempt <= budget; attempt++ {
		idx := s.intN(size)
		sentence, err := s.store.Get(language, idx)
		if err != nil {
			// Table shrank between Size and Get (concurrent reload);
			// redraw against the new size.
			size = s.store.Size(language)
			if size == 0 {
				return Sentence{}, &EmptyDatasetError{Language: language}
			}
			continue
		}

		metrics.SelectorDrawsTotal.WithLabelValues(language).Inc()
		if category == CategoryAny || Classify(sentence) == category {
			return sentence, nil
		}
		metrics.SelectorRejectionsTotal.WithLabelValues(language).Inc()
	}

	metrics.SelectorExhaustionsTotal.WithLabelValues(language).Inc()
	s.log.Warn().
		Str("language", language).
		Int("category", category).
		Int("attempts", budget).
		Msg("category unsatisfiable")
	return Sentence{}, &CategoryUnsatisfiableError{Language: language, Category: category, Attempts: budget}
}

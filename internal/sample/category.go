package sample

// Difficulty categories. A sentence's category depends only on its word
// count: (0,8] is easy, (8,20] medium, anything longer hard. Zero is the
// wildcard used in selection requests, never returned by Classify.
const (
	CategoryAny    = 0
	CategoryEasy   = 1
	CategoryMedium = 2
	CategoryHard   = 3
)

// categoryWordLimits are the upper bounds of each tier, lower-exclusive /
// upper-inclusive.
var categoryWordLimits = []int{8, 20}

// Classify maps a sentence to its difficulty category. Blank sentences are
// rejected at load time, so word counts are >= 1 in practice; a zero count
// falls into the easy tier.
func Classify(s Sentence) int {
	for i, limit := range categoryWordLimits {
		if s.WordCount <= limit {
			return i + 1
		}
	}
	return CategoryHard
}

// ValidCategory reports whether c is the wildcard or a real tier.
func ValidCategory(c int) bool {
	return c >= CategoryAny && c <= CategoryHard
}

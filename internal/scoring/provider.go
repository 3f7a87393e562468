// Package scoring defines the boundary to the external speech-scoring
// collaborator.
package scoring

import "context"

// Request is the payload handed to the scorer: transport-safe audio plus
// the phrase the speaker was attempting.
type Request struct {
	AudioDataBase64 string `json:"audioDataBase64"`
	TargetPhrase    string `json:"targetPhrase"`
	Language        string `json:"language"`
}

// Result is the scorer's verdict. Fields mirror the collaborator's
// response; this service only relays them.
type Result struct {
	RealTranscript     string  `json:"real_transcript"`
	IPATranscript      string  `json:"ipa_transcript"`
	MatchedTranscript  string  `json:"matched_transcripts"`
	PronunciationScore float64 `json:"pronunciation_accuracy"`
	LettersCorrect     string  `json:"is_letter_correct_all_words"`
}

// Provider scores a spoken attempt against its target phrase.
type Provider interface {
	Score(ctx context.Context, req *Request) (*Result, error)
	Name() string
}

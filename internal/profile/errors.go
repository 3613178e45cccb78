package profile

import (
	"errors"
	"fmt"
)

var (
	// ErrClassifier matches every failure reported by a Classifier or
	// SentimentScorer while building a profile.
	ErrClassifier = errors.New("classifier failure")

	// ErrMalformedResult is returned when a capability answers without an
	// error but the answer is unusable: an empty ranking or a score outside
	// [0, 1].
	ErrMalformedResult = errors.New("malformed classifier result")
)

// ClassifierError records which capability failed and on which phrase.
type ClassifierError struct {
	Op     string // "classify" or "sentiment"
	Phrase string
	Err    error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Phrase, e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrClassifier) match any ClassifierError.
func (e *ClassifierError) Is(target error) bool {
	return target == ErrClassifier
}

package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// CacheStats counts cached classifier answers.
type CacheStats struct {
	Classifications int `json:"classifications"`
	Sentiments      int `json:"sentiments"`
}

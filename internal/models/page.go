package models

// Page is one slice of a collection plus the collection version it was read
// at.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Version int64 `json:"version"`
}

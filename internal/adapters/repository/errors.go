package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrStoreFull = errors.New("record store is full")
)

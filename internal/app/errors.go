package service

import "errors"

// Sentinel errors returned by the service facade.
var (
	// ErrNotStarted is returned by ingestion calls made before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrBackpressure is returned when the ingestion queue is full.
	ErrBackpressure = errors.New("ingestion queue is full")
	// ErrUnknownGroup is returned when a group has no records.
	ErrUnknownGroup = errors.New("unknown group")
)

package models

import "errors"

var (
	// ErrSource means the manual could not be opened or decoded.
	ErrSource = errors.New("manual source unreadable")
	// ErrEmptyExtraction means the manual was readable but yielded no usable chunks.
	ErrEmptyExtraction = errors.New("no usable chunks extracted")
	// ErrIndex means embedding or an index write/read failed.
	ErrIndex = errors.New("vector index failure")
	// ErrConfiguration means a required setting or credential is missing.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrGeneration means the language model call failed. Recovered per query,
	// never fatal to the session.
	ErrGeneration = errors.New("answer generation failed")
)

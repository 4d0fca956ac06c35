package crag

import "errors"

var (
	// ErrEmptyQuestion is returned when Run is called with a blank question.
	ErrEmptyQuestion = errors.New("question must not be empty")

	// ErrRetrieval wraps failures of the document store.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrAssessment wraps failures of the quality assessor.
	ErrAssessment = errors.New("assessment failed")

	// ErrGeneration wraps failures of the answer generator.
	ErrGeneration = errors.New("generation failed")

	// ErrMissingComponent is returned by New when a required component is nil.
	ErrMissingComponent = errors.New("missing pipeline component")
)

package model

import "errors"

// Sentinel errors for the domain model.
var (
	ErrInvalidGrade = errors.New("invalid grade level")
	ErrNoSentence   = errors.New("no sentence at reference")
)

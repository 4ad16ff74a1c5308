package repository

import "errors"

// Sentinel kinds for job store errors.
var (
	ErrNotFound     = errors.New("job not found")
	ErrExists       = errors.New("job already exists")
	ErrInvalidJob   = errors.New("job must have an id")
	ErrInvalidLimit = errors.New("invalid list limit")
)

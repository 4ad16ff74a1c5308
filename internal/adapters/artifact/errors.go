package artifact

import "errors"

// Sentinel kinds for artifact errors.
var (
	ErrNotFound   = errors.New("artifact not found")
	ErrInvalidKey = errors.New("invalid artifact key")
)

package storyctl

import "errors"

// CLI errors.
var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrServer        = errors.New("server request failed")
	ErrJobFailed     = errors.New("story job did not succeed")
)

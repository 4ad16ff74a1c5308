package pipeline

import "errors"

// ErrEmptyStory means the generator answered with no sentences.
var ErrEmptyStory = errors.New("generated story has no sentences")

package companion

import "errors"

var (
	// ErrNoIdeas means every random story idea request failed.
	ErrNoIdeas = errors.New("no story ideas generated")

	// ErrIncompleteIdea means a generated idea lacked theme, genre or skill.
	ErrIncompleteIdea = errors.New("story idea is incomplete")

	// ErrNoImages means no image generator is configured.
	ErrNoImages = errors.New("image generation not configured")
)

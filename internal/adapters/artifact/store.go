// Package artifact stores generated illustrations by key.
package artifact

import (
	"context"
	"mime"
	"strings"
)

// Object is a stored blob and its media type.
type Object struct {
	Data        []byte
	ContentType string
}

// Store keeps illustration bytes. Keys look like "<job id>/<name>".
type Store interface {
	Put(ctx context.Context, key string, obj Object) error
	Get(ctx context.Context, key string) (Object, error)
	Backend() string
}

// Key joins a job id and a file name into an object key.
func Key(jobID, name string) string {
	return strings.TrimSpace(jobID) + "/" + strings.TrimLeft(strings.TrimSpace(name), "/")
}

// Extension returns a file extension for a media type, ".bin" if unknown.
func Extension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func checkKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return key, nil
}

// Package site serves the embedded story studio page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the studio routes to mux. More specific API patterns
// registered on the same mux take precedence.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /", http.FileServer(FS()))
}

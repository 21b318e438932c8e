// Package site serves the embedded landing page for meet officials.
package site

import (
	"context"
	"net/http"
)

// Register serves the landing page and its assets for GET requests that no
// API route claims.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /", http.FileServer(FS()))
}

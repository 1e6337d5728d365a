// Package web embeds the static dashboard served by the API at /.
//
// The dashboard is a single page that reads /api/v1/themes and
// /api/v1/recommendations and reloads when the server pushes a refresh
// event over /ws.
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed static
var dist embed.FS

// DistFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func DistFS() fs.FS {
	sub, err := fs.Sub(dist, "static")
	if err != nil {
		log.Fatalf("web.DistFS: %v", err)
	}
	return sub
}

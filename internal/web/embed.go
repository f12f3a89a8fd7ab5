// Package web holds the browser client served by the poker server.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

// Asset returns the content of a file from the static directory.
func Asset(name string) ([]byte, error) {
	return fs.ReadFile(staticFS, "static/"+name)
}

// MustAsset is Asset for files that are known to be embedded.
func MustAsset(name string) []byte {
	data, err := Asset(name)
	if err != nil {
		panic(err)
	}
	return data
}

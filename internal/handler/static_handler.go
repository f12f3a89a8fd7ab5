package handler

import (
	"net/http"

	"poker/internal/pkg/errs"
	"poker/internal/pkg/resp"
	"poker/internal/web"
)

const robotsTxt = "User-agent: *\nDisallow:\n"

// staticAssets holds the embedded client, read once at start-up.
type staticAssets struct {
	indexHTML []byte
	mainCSS   []byte
	mainJS    []byte
}

func loadStaticAssets() staticAssets {
	return staticAssets{
		indexHTML: web.MustAsset("index.html"),
		mainCSS:   web.MustAsset("main.css"),
		mainJS:    web.MustAsset("main.js"),
	}
}

// serve answers a plain HTTP request for the first path segment. Unknown
// segments get the single-page client, which reads the room from the URL.
func (a staticAssets) serve(w http.ResponseWriter, r *http.Request, segment string) {
	switch segment {
	case "robots.txt":
		resp.RespondContent(w, "text/plain; charset=utf-8", []byte(robotsTxt))
	case "main.css":
		resp.RespondContent(w, "text/css; charset=utf-8", a.mainCSS)
	case "main.js":
		resp.RespondContent(w, "text/javascript; charset=utf-8", a.mainJS)
	case "manifest.json":
		resp.RespondContent(w, "application/json; charset=utf-8", []byte("{}"))
	case "favicon.ico":
		resp.RespondError(w, r, errs.NewError(errs.ErrNotFound))
	default:
		resp.RespondContent(w, "text/html; charset=utf-8", a.indexHTML)
	}
}

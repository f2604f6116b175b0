package handler

import (
	"errors"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	internal_errors "github.com/poradna-dev/poradna/backend/internal/errors"
	"github.com/poradna-dev/poradna/shared/utils"
)

// MediaOpener opens stored blobs for serving.
type MediaOpener interface {
	Open(path string) (*os.File, os.FileInfo, error)
}

// imageTypes are the extensions served inline, the raster formats the
// transcoder reads and writes.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Media serves blobs from the filesystem store under the chi wildcard.
// Object paths embed a unique id, so responses are cached for good.
func Media(opener MediaOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, info, err := opener.Open(chi.URLParam(r, "*"))
		if err != nil {
			if errors.Is(err, internal_errors.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		defer file.Close()

		if contentType, ok := imageTypes[strings.ToLower(path.Ext(info.Name()))]; ok {
			w.Header().Set("Content-Type", contentType)
		} else {
			// originals keep the client's file name, never render them inline
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("Content-Disposition", "attachment")
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		http.ServeContent(w, r, info.Name(), info.ModTime(), file)
	}
}

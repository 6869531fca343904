package rest

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/server/storage"
	"github.com/go-chi/chi/v5"
)

// serveFile streams an upload stored under /files/{key}.
func (h *handlers) serveFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if !storage.ValidKey(key) {
		writeError(r.Context(), w, h.logger, common.ErrorNotFound)
		return
	}

	obj, err := h.files.Open(r.Context(), key)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	defer obj.Body.Close()

	ct := obj.ContentType
	if ct == "" {
		ct = mime.TypeByExtension(filepath.Ext(key))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}

	hdr := w.Header()
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set("Cache-Control", "public, max-age=86400")
	hdr.Set("Content-Security-Policy", "default-src 'none'; sandbox")
	hdr.Set("Content-Type", ct)
	if !inlineSafe(ct) {
		hdr.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": key}))
	}

	if rs, ok := obj.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, key, time.Time{}, rs)
		return
	}

	if obj.Size > 0 {
		hdr.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Debug(r.Context(), "file stream interrupted", "key", key, "error", err)
	}
}

// inlineImages are rendered by browsers without running script.
var inlineImages = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/avif": true,
	"image/bmp":  true,
}

// inlineSafe reports whether ct may be displayed inline from the API origin.
// Everything else, SVG and HTML included, is served as a download.
func inlineSafe(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return inlineImages[strings.ToLower(mt)]
}

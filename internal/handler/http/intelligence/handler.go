// Package intelligence serves a single archived item as a minimal HTML
// page. Rich rendering (themes, markdown, related-item links) is external
// to the Hub; this handler only exposes the underlying fields.
package intelligence

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"intelhub/internal/domain/entity"
	"intelhub/internal/handler/http/pathutil"
	"intelhub/internal/usecase/query"
)

// Handler serves GET /intelligence/<uuid>.
type Handler struct {
	Engine *query.Engine
	Prefix string // path prefix to strip, e.g. "/intelligence/"
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractUUID(r.URL.Path, h.Prefix)
	if err != nil {
		http.Error(w, "invalid uuid", http.StatusBadRequest)
		return
	}

	item, err := h.Engine.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body>",
		html.EscapeString(item.EventTitle))
	fmt.Fprintf(w, "<h1>%s</h1>", html.EscapeString(item.EventTitle))
	fmt.Fprintf(w, "<p>%s</p>", html.EscapeString(item.EventBrief))
	fmt.Fprintf(w, "<article>%s</article>", html.EscapeString(item.EventText))
	fmt.Fprintf(w, "<dl><dt>Informant</dt><dd>%s</dd>", html.EscapeString(item.Informant))
	fmt.Fprintf(w, "<dt>Location</dt><dd>%s</dd>", html.EscapeString(strings.Join(item.Location, ", ")))
	fmt.Fprintf(w, "<dt>Rate class</dt><dd>%s (%.2f)</dd></dl>",
		html.EscapeString(item.Appendix.MaxRateClass), item.Appendix.MaxRateScore)
	fmt.Fprint(w, "</body></html>")
}

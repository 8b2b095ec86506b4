// Package feed serves the Hub's RSS 2.0 feed of archived items.
package feed

import (
	"net/http"

	"intelhub/internal/usecase/rss"
)

// Config names the feed's channel-level metadata.
type Config struct {
	Title       string
	Link        string
	Description string
}

// Handler serves GET /rssfeed.xml from the in-memory RSS Publisher.
type Handler struct {
	Publisher *rss.Publisher
	Config    Config
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	xmlBody, err := h.Publisher.GenerateFeed(h.Config.Title, h.Config.Link, h.Config.Description)
	if err != nil {
		http.Error(w, "failed to generate feed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(xmlBody))
}

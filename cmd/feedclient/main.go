// Command feedclient is a reference submitter for the Hub's /collect
// endpoint: it parses an RSS/Atom feed and submits each entry as a
// Collected record. It stands in for the external crawler plugins during
// development and end-to-end testing; the Hub itself never parses feeds.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"

	"intelhub/internal/domain/entity"
	"intelhub/internal/resilience/retry"
)

func main() {
	feedURL := flag.String("feed", "", "RSS/Atom feed URL to read")
	hubURL := flag.String("hub", "http://localhost:8080", "Hub base URL")
	token := flag.String("token", "", "collector bearer token")
	informant := flag.String("informant", "", "informant label attached to each submission")
	limit := flag.Int("limit", 10, "maximum number of entries to submit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *feedURL == "" || *token == "" {
		logger.Error("both -feed and -token are required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(*feedURL, ctx)
	// gofeed may report a non-fatal ("bozo") parse problem alongside usable
	// entries; surface the error but keep going when entries came through.
	if err != nil && feed == nil {
		logger.Error("feed parse failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err != nil {
		logger.Warn("feed parsed with non-fatal errors", slog.Any("error", err))
	}

	submitted := 0
	for _, entry := range feed.Items {
		if submitted >= *limit {
			break
		}
		item := toCollected(feed, entry, *token, *informant)
		if item.Content == "" {
			logger.Warn("skipping entry without content", slog.String("title", entry.Title))
			continue
		}
		if err := submit(ctx, *hubURL, *token, item); err != nil {
			logger.Error("submission failed",
				slog.String("title", entry.Title), slog.Any("error", err))
			continue
		}
		submitted++
		logger.Info("submitted", slog.String("title", entry.Title))
	}
	logger.Info("done", slog.Int("submitted", submitted), slog.Int("entries", len(feed.Items)))
}

func toCollected(feed *gofeed.Feed, entry *gofeed.Item, token, informant string) entity.CollectedItem {
	content := entry.Content
	if content == "" {
		content = entry.Description
	}
	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if a != nil && a.Name != "" {
			authors = append(authors, a.Name)
		}
	}
	if informant == "" {
		informant = feed.Title
	}

	item := entity.CollectedItem{
		Token:     token,
		Source:    entry.Link,
		Title:     entry.Title,
		Authors:   authors,
		Content:   content,
		Informant: informant,
	}
	if entry.PublishedParsed != nil {
		t := entry.PublishedParsed.UTC()
		item.PubTime = &t
	}
	return item
}

func submit(ctx context.Context, hubURL, token string, item entity.CollectedItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return err
	}

	return retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, hubURL+"/collect", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusServiceUnavailable {
			// Queue full: retriable by contract.
			return &retry.HTTPError{StatusCode: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("hub returned status %d", resp.StatusCode)
		}
		return nil
	})
}

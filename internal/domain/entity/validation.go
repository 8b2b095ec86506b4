package entity

import (
	"fmt"
	"net/url"
)

// maxURLLength bounds URLs accepted into the crawl record store.
const maxURLLength = 2048

// ValidateURL checks the shape of a URL recorded by an upstream crawler
// plugin before it is persisted as a crawl record key. It requires a
// well-formed absolute HTTP/HTTPS URL with a host. The Hub never fetches
// these URLs itself, so reachability and address-range policy are the
// crawler's concern, not validated here.
// Returns a ValidationError if the URL is empty, too long, not http/https,
// or has no host; a URL the parser rejects returns the wrapped parse error.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	// HTTPまたはHTTPSスキームのみ許可
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}

// Package pathutil holds small helpers shared by the HTTP handlers for
// extracting identifiers from URL paths and normalizing paths for metrics
// labels.
package pathutil

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when the identifier in the URL path is invalid.
var ErrInvalidID = errors.New("invalid id")

// ExtractUUID extracts and parses a UUID from a URL path.
// It removes the specified prefix and attempts to parse the remaining
// string as a canonical UUID.
//
// Example:
//
//	id, err := ExtractUUID("/intelligence/6ba7b810-9dad-11d1-80b4-00c04fd430c8", "/intelligence/")
func ExtractUUID(path, prefix string) (uuid.UUID, error) {
	idStr := strings.TrimPrefix(path, prefix)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationSet is a periodically-generated short list of the most
// important recent archived items, derived by submitting candidates to the
// LLM. It is keyed for persistence by GeneratedDatetime truncated to the
// top of the hour.
type RecommendationSet struct {
	GeneratedDatetime      time.Time      `json:"generated_datetime"`
	Recommendations        []ArchivedItem `json:"recommendations"`
	CandidateIntelligences []uuid.UUID    `json:"candidate_uuids"`
}

// TruncatedHour returns GeneratedDatetime truncated to the start of its hour,
// the persistence key for upsert-idempotent generation.
func (r *RecommendationSet) TruncatedHour() time.Time {
	return r.GeneratedDatetime.Truncate(time.Hour)
}

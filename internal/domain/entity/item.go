// Package entity defines the core domain entities and validation logic for the
// Intelligence Integration Hub: the Collected/Processed/Archived record shapes
// that move through the ingestion, analysis, and archival pipeline, along with
// their validation rules and domain-specific errors.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// CollectedItem is a raw submission accepted at the ingestion boundary, as
// produced by an upstream crawler task. It is immutable once accepted.
// Wire names follow the submission contract in lowercase snake case
// ("uuid", "pub_time", ...). encoding/json matches tag names case-insensitively,
// so submitters using all-caps variants still bind.
type CollectedItem struct {
	UUID      uuid.UUID  `json:"uuid"`
	Token     string     `json:"token"`
	Source    string     `json:"source,omitempty"`
	Target    string     `json:"target,omitempty"`
	Prompt    string     `json:"prompt,omitempty"`
	Title     string     `json:"title,omitempty"`
	Authors   []string   `json:"authors,omitempty"`
	Content   string     `json:"content"`
	PubTime   *time.Time `json:"pub_time,omitempty"`
	Informant string     `json:"informant,omitempty"`
}

// Rate is the per-dimension score map attached to a ProcessedItem, e.g.
// {"credibility": 0.8, "impact": 0.6, "accuracy": 0.9}.
type Rate map[string]float64

// ProcessedItem is the structured result of running a CollectedItem through
// the Analysis Worker. It shares its UUID with the originating CollectedItem.
// An absent EventText means the analyzer judged the item unworthy of
// archival (a business drop, not an error).
type ProcessedItem struct {
	UUID         uuid.UUID  `json:"uuid"`
	Informant    string     `json:"informant,omitempty"`
	PubTime      *time.Time `json:"pub_time,omitempty"`
	Time         []string   `json:"time,omitempty"`
	Location     []string   `json:"location,omitempty"`
	People       []string   `json:"people,omitempty"`
	Organization []string   `json:"organization,omitempty"`
	EventTitle   string     `json:"event_title"`
	EventBrief   string     `json:"event_brief"`
	EventText    string     `json:"event_text,omitempty"`
	Rate         Rate       `json:"rate,omitempty"`
	Impact       string     `json:"impact,omitempty"`
	Tips         string     `json:"tips,omitempty"`
}

// Dropped reports whether this ProcessedItem was judged low-value by the
// analyzer (no EventText) and should not be promoted to an ArchivedItem.
func (p *ProcessedItem) Dropped() bool {
	return p.EventText == ""
}

// ArchivedFlag is the single-character terminal state written onto a cache
// row describing its eventual outcome.
type ArchivedFlag string

const (
	// FlagNone marks a cache row with no terminal outcome yet (pending).
	FlagNone ArchivedFlag = ""
	// FlagArchived marks successful archival.
	FlagArchived ArchivedFlag = "A"
	// FlagDropped marks a business-drop (low-value, no EventText).
	FlagDropped ArchivedFlag = "D"
	// FlagError marks a permanent failure during analysis or archival.
	FlagError ArchivedFlag = "E"
	// FlagRetry marks an item scheduled for reprocessing. Defined but not
	// driven by a retry worker in this implementation.
	FlagRetry ArchivedFlag = "R"
)

// Terminal reports whether the flag is one of the three terminal outcomes.
func (f ArchivedFlag) Terminal() bool {
	return f == FlagArchived || f == FlagDropped || f == FlagError
}

// Appendix carries the bookkeeping fields attached to an ArchivedItem: the
// timestamps recorded at each pipeline stage, the retry count, the archived
// flag mirrored from the cache row, and the derived max-rate class/score.
type Appendix struct {
	TimeGot      time.Time    `json:"time_got"`
	TimePost     time.Time    `json:"time_post"`
	TimeDone     time.Time    `json:"time_done"`
	TimeArchived time.Time    `json:"time_archived"`
	RetryCount   int          `json:"retry_count"`
	ArchivedFlag ArchivedFlag `json:"archived_flag"`
	MaxRateClass string       `json:"max_rate_class"`
	MaxRateScore float64      `json:"max_rate_score"`
	// LinkItems and ParentItem are reserved for future enrichment steps;
	// nothing in the pipeline populates them yet.
	LinkItems  []uuid.UUID `json:"link_items,omitempty"`
	ParentItem *uuid.UUID  `json:"parent_item,omitempty"`
}

// ArchivedItem is a superset of ProcessedItem plus the raw submission, the
// submitter identity, and the Appendix bookkeeping block. It is immutable
// after creation by the Archival Worker, aside from out-of-scope manual
// rating annotations.
type ArchivedItem struct {
	ProcessedItem
	RawData   string   `json:"raw_data,omitempty"`
	Submitter string   `json:"submitter,omitempty"`
	Appendix  Appendix `json:"appendix"`
}

// MaxRate scans Rate excluding excludeClass (conventionally "accuracy") and
// returns the highest-scoring class and its score, breaking ties by keeping
// the first-seen key in insertion order. keyOrder must list the keys of r in
// the order they should be considered; Go maps do not preserve insertion
// order, so callers that need a stable tie-break must supply it explicitly
// from the order fields were decoded off the wire.
func (r Rate) MaxRate(excludeClass string, keyOrder []string) (class string, score float64) {
	best := false
	for _, k := range keyOrder {
		if k == excludeClass {
			continue
		}
		v, ok := r[k]
		if !ok {
			continue
		}
		if !best || v > score {
			class, score = k, v
			best = true
		}
	}
	return class, score
}

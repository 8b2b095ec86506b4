package entity

import "time"

// Crawl record status codes. Codes 0-9 are reserved for system use; user
// statuses begin at 10. These values are part of the external contract
// upstream crawler plugins depend on and must not be renumbered.
const (
	StatusNotExist = -1
	StatusUnknown  = 0
	StatusDBError  = 1
	StatusError    = 10
	StatusSuccess  = 100
	StatusIgnored  = 110
)

// CrawlRecordRow is a single per-URL durable status row used by upstream
// crawler plugins to avoid duplicate work. It is a shared utility consumed
// outside the core analysis pipeline.
type CrawlRecordRow struct {
	URL         string
	Status      int
	ErrorCount  int
	Extra       string
	CreatedTime time.Time
	UpdatedTime time.Time
}

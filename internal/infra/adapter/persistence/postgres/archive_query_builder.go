package postgres

import (
	"fmt"
	"strings"

	"intelhub/internal/repository"

	"github.com/lib/pq"
)

// ArchiveQueryBuilder builds WHERE clauses for the Query Engine (component
// L) over archive_items. Shared between COUNT and SELECT queries to
// avoid duplicating filter logic. Uses Postgres-specific array-overlap
// (&&) and word-boundary regex (~*) operators.
type ArchiveQueryBuilder struct{}

// NewArchiveQueryBuilder creates a new query builder instance.
func NewArchiveQueryBuilder() *ArchiveQueryBuilder {
	return &ArchiveQueryBuilder{}
}

// BuildWhereClause translates an ArchiveFilter into a WHERE clause and its
// positional arguments. Returns an empty clause if filter has no conditions.
func (qb *ArchiveQueryBuilder) BuildWhereClause(filter repository.ArchiveFilter) (clause string, args []interface{}) {
	var conditions []string
	paramIndex := 1

	add := func(cond string, vals ...interface{}) {
		conditions = append(conditions, cond)
		args = append(args, vals...)
		paramIndex += len(vals)
	}

	if filter.ArchivePeriodFrom != nil {
		add(fmt.Sprintf("time_archived >= $%d", paramIndex), *filter.ArchivePeriodFrom)
	}
	if filter.ArchivePeriodTo != nil {
		add(fmt.Sprintf("time_archived < $%d", paramIndex), *filter.ArchivePeriodTo)
	}
	if filter.PubPeriodFrom != nil {
		add(fmt.Sprintf("pub_time >= $%d", paramIndex), *filter.PubPeriodFrom)
	}
	if filter.PubPeriodTo != nil {
		add(fmt.Sprintf("pub_time < $%d", paramIndex), *filter.PubPeriodTo)
	}
	if len(filter.Locations) > 0 {
		add(fmt.Sprintf("location && $%d", paramIndex), pq.Array(filter.Locations))
	}
	if len(filter.Peoples) > 0 {
		add(fmt.Sprintf("people && $%d", paramIndex), pq.Array(filter.Peoples))
	}
	if len(filter.Organizations) > 0 {
		add(fmt.Sprintf("organization && $%d", paramIndex), pq.Array(filter.Organizations))
	}
	if filter.Threshold != nil {
		add(fmt.Sprintf("max_rate_score >= $%d", paramIndex), *filter.Threshold)
	}

	// Keywords: each term AND-combined, each OR-combined across
	// event_brief/event_text using a case-insensitive word-boundary regex
	// (Postgres spells word boundary \y, not \b).
	for _, kw := range filter.Keywords {
		pattern := `\y` + regexpQuoteMeta(kw) + `\y`
		conditions = append(conditions,
			fmt.Sprintf("(event_brief ~* $%d OR event_text ~* $%d)", paramIndex, paramIndex))
		args = append(args, pattern)
		paramIndex++
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// regexpQuoteMeta escapes Postgres regex metacharacters in a user-supplied
// keyword so it matches literally except for the \y boundaries we add.
func regexpQuoteMeta(s string) string {
	special := `\.+*?()|[]{}^$`
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Package search holds small helpers shared by the Archive Store's query
// builder and the Query Engine: a bounded timeout for search-style queries
// and ILIKE wildcard escaping.
package search

import (
	"strings"
	"time"
)

// DefaultSearchTimeout bounds any single keyword/filter query issued against
// the Archive Store, so a pathological keyword list cannot stall a worker
// or an HTTP handler indefinitely.
const DefaultSearchTimeout = 5 * time.Second

// EscapeILIKE escapes Postgres ILIKE wildcard characters in user-supplied
// keyword input before it is wrapped in '%...%' and passed as a query
// parameter.
func EscapeILIKE(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

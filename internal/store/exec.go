package store

import (
	"database/sql"
	"strings"
)

// execer is satisfied by both *sql.DB and *sql.Tx, letting the row-level
// helpers below run either as a single implicitly-transacted statement or
// as a step inside a caller-managed Store.WithTx transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

// inClause appends a `?` placeholder for each id in ids to prefix, closes
// the parenthesis, and returns the finished query alongside its argument
// list, for batched `IN (...)` lookups.
func inClause(prefix string, ids []int32) (string, []any) {
	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return prefix + placeholders + ")", args
}

// Package pipeline_repo provides PostgreSQL implementations for the
// derivation pipeline repositories: pump readings, sales, pits and their
// stock snapshots.
package pipeline_repo

import (
	"github.com/Masterminds/squirrel"
)

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Package sqlquery implements Component 13 (SQL Query Layer, spec.md
// §4.6): a read-only query engine that registers a DataLake schema's
// active record set as a queryable table, rejecting any statement that
// looks like a write. Grounded on
// original_source/src/adapters/datafusion_handler.rs's execute_sql/
// register_data_lake_table (the keyword guard and the registration
// policy), translated from DataFusion's Arrow query engine to an
// in-process SQLite table — the same modernc.org/sqlite driver
// engine/mockengine.DatabaseStrategy and engine/datalake.DBStore already
// speak, per SPEC_FULL.md's "SQL guard upgrade path" decision.
package sqlquery

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/periplon/metis/engine/core"
)

// writeKeywords is the first-pass case-folded, whole-word guard spec.md
// §4.6 specifies verbatim — not a full SQL parser.
var writeKeywords = []string{"drop ", "delete ", "truncate ", "alter ", "insert ", "update "}

// checkGuard rejects sql if its case-folded text contains any write
// keyword, then runs a second, independent pass confirming the statement
// is embeddable as a SELECT expression via squirrel's builder surface —
// another shallow check, not a parser, per SPEC_FULL.md's "SQL guard
// upgrade path" decision.
func checkGuard(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return core.NewError(errors.New("empty query"), core.CodeInvalidRequest, nil)
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range writeKeywords {
		if strings.Contains(lower, kw) {
			return core.NewError(fmt.Errorf("only SELECT queries are allowed (found %q)", strings.TrimSpace(kw)), core.CodeInvalidRequest, nil)
		}
	}
	if !strings.HasPrefix(lower, "select") {
		return core.NewError(errors.New("only SELECT queries are allowed"), core.CodeInvalidRequest, nil)
	}
	// Second pass: confirm the statement is well-formed enough to embed as
	// a subquery expression through squirrel's own builder, independent of
	// the keyword scan above.
	if _, _, err := sq.Select("*").FromSelect(sq.Expr(trimmed), "guard_check").ToSql(); err != nil {
		return core.NewError(fmt.Errorf("query failed builder validation: %w", err), core.CodeInvalidRequest, nil)
	}
	return nil
}

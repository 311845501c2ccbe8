package schemadelta

import (
	"fmt"
	"strings"
)

// DefaultDelimiter terminates generated statements.
const DefaultDelimiter = ";"

// RenderOptions tunes Render.
type RenderOptions struct {
	// Delimiter terminates generated statements. Defaults to ";".
	Delimiter string

	// AppliedBy, when set, is recorded as a string literal in place of the
	// dialect's current-user expression.
	AppliedBy string
}

// Render turns plan into a single SQL script. For every delta it emits the
// body unmodified followed by a change log insert; the change log table is
// created first when the plan says it is missing and d requires it.
//
// An empty plan renders as "". The output depends only on plan, d and opts.
func Render(plan *Plan, d Dialect, opts RenderOptions) string {
	if plan.Empty() {
		return ""
	}
	delim := opts.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}
	user := d.CurrentUserExpr()
	if opts.AppliedBy != "" {
		user = quoteLiteral(opts.AppliedBy)
	}
	table := d.QuoteIdentifier(d.ChangeLogTableName())

	var b strings.Builder
	if !plan.ChangeLogExists && d.CreatesChangeLog() {
		b.WriteString("-- Create change log\n")
		b.WriteString(d.CreateChangeLogSQL(delim))
		b.WriteString("\n")
	}

	for _, s := range plan.Scripts {
		fmt.Fprintf(&b, "-- START CHANGE SCRIPT #%d: %s\n\n", s.ID, s.label())
		b.WriteString(s.Body)
		if !strings.HasSuffix(s.Body, "\n") {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, `
INSERT INTO %s (change_number, complete_dt, applied_by, description)
 VALUES (%d, %s, %s, %s)%s

`, table, s.ID, d.CurrentTimestampExpr(), user, quoteLiteral(s.Description), delim)
		fmt.Fprintf(&b, "-- END CHANGE SCRIPT #%d: %s\n\n", s.ID, s.label())
	}
	return b.String()
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

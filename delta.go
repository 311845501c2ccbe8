package schemadelta

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DeltaScript is one numbered unit of schema change.
type DeltaScript struct {
	// ID orders deltas. IDs need not be contiguous but must be unique.
	ID int

	// Description is an informational label, usually derived from the file name.
	Description string

	// FileName is the name the delta was loaded from, if any.
	FileName string

	// Body is the raw SQL applied for this delta.
	Body string
}

// lineBreaks flattens a label onto a single comment line.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// label names the delta in generated line comments.
func (s DeltaScript) label() string {
	switch {
	case s.FileName != "":
		return lineBreaks.Replace(s.FileName)
	case s.Description != "":
		return lineBreaks.Replace(s.Description)
	}
	return fmt.Sprintf("#%d", s.ID)
}

// ChangeLogEntry is a row of the change log table.
type ChangeLogEntry struct {
	ID          int
	AppliedAt   time.Time
	AppliedBy   string
	Description string
}

// Plan is the ordered set of deltas chosen for one reconciliation run.
type Plan struct {
	// Scripts holds the pending deltas, ascending by ID.
	Scripts []DeltaScript

	// Applied lists the IDs found in the change log, ascending.
	Applied []int

	// ChangeLogExists is false when the database has no change log table yet.
	ChangeLogExists bool
}

// Empty reports whether the plan has nothing to apply.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Scripts) == 0
}

// IDs returns the IDs of the pending deltas.
func (p *Plan) IDs() []int {
	if p == nil {
		return nil
	}
	ids := make([]int, len(p.Scripts))
	for i, s := range p.Scripts {
		ids[i] = s.ID
	}
	return ids
}

// checkOrder verifies that scripts are strictly ascending by ID.
func checkOrder(scripts []DeltaScript) error {
	for i := 1; i < len(scripts); i++ {
		prev, cur := scripts[i-1].ID, scripts[i].ID
		if cur == prev {
			return fmt.Errorf("%w: %d", ErrDuplicateDelta, cur)
		}
		if cur < prev {
			return fmt.Errorf("%w: %d follows %d", ErrUnorderedDeltas, cur, prev)
		}
	}
	return nil
}

// sortScriptsAsc sorts scripts in ascending order based on ID.
func sortScriptsAsc(scripts []DeltaScript) {
	sort.SliceStable(scripts, func(i, j int) bool {
		return scripts[i].ID < scripts[j].ID
	})
}

// formatIDs renders ids compactly, collapsing runs: "1..3, 5".
func formatIDs(ids []int) string {
	if len(ids) == 0 {
		return "(none)"
	}
	var parts []string
	start, prev := ids[0], ids[0]
	flush := func() {
		switch {
		case start == prev:
			parts = append(parts, fmt.Sprintf("%d", start))
		case prev == start+1:
			parts = append(parts, fmt.Sprintf("%d, %d", start, prev))
		default:
			parts = append(parts, fmt.Sprintf("%d..%d", start, prev))
		}
	}
	for _, id := range ids[1:] {
		if id == prev+1 {
			prev = id
			continue
		}
		flush()
		start, prev = id, id
	}
	flush()
	return strings.Join(parts, ", ")
}

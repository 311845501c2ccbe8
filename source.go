package schemadelta

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// UndoMarker separates a delta's apply section from its rollback section.
// Everything from the marker on is discarded when loading.
const UndoMarker = "--//@UNDO"

// ScriptSource supplies the available delta scripts, ascending by ID.
type ScriptSource interface {
	ListScripts(ctx context.Context) ([]DeltaScript, error)
}

// ScriptSourceFunc adapts a function to ScriptSource.
type ScriptSourceFunc func(ctx context.Context) ([]DeltaScript, error)

func (f ScriptSourceFunc) ListScripts(ctx context.Context) ([]DeltaScript, error) {
	return f(ctx)
}

// FSSource loads deltas from the *.sql files in one directory of an fs.FS,
// such as an embed.FS or os.DirFS. File names start with the delta ID:
//
//	001_create_users.sql
//	2 add email column.sql
type FSSource struct {
	FS  fs.FS
	Dir string
}

var deltaFileRe = regexp.MustCompile(`^(\d+)(.*)\.sql$`)

// ListScripts reads every delta file in the directory and returns them
// sorted by ID. Files that do not start with a number are ignored.
func (s FSSource) ListScripts(ctx context.Context) ([]DeltaScript, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if s.FS == nil {
		return nil, &ScriptSourceError{Path: dir, Err: fmt.Errorf("%w: no filesystem", ErrInvalidConfig)}
	}
	entries, err := fs.ReadDir(s.FS, dir)
	if err != nil {
		return nil, &ScriptSourceError{Path: dir, Err: err}
	}

	var scripts []DeltaScript
	seen := make(map[int]string)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		p := path.Join(dir, entry.Name())
		id, desc, ok, err := parseDeltaName(entry.Name())
		if err != nil {
			return nil, &ScriptSourceError{Path: p, Err: err}
		}
		if !ok {
			continue
		}
		if other, exists := seen[id]; exists {
			return nil, &ScriptSourceError{
				Path: dir,
				Err:  fmt.Errorf("%w: %d (%s and %s)", ErrDuplicateDelta, id, other, entry.Name()),
			}
		}
		seen[id] = entry.Name()

		data, err := fs.ReadFile(s.FS, p)
		if err != nil {
			return nil, &ScriptSourceError{Path: p, Err: err}
		}
		scripts = append(scripts, DeltaScript{
			ID:          id,
			Description: desc,
			FileName:    entry.Name(),
			Body:        stripUndo(string(data)),
		})
	}
	sortScriptsAsc(scripts)
	return scripts, nil
}

// parseDeltaName splits a delta file name into its ID and description.
// ok is false for names that are not deltas; a delta name whose ID is zero
// or out of range is an error.
func parseDeltaName(name string) (id int, desc string, ok bool, err error) {
	m := deltaFileRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false, nil
	}
	id, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false, fmt.Errorf("invalid delta id %q: %w", m[1], err)
	}
	if id <= 0 {
		return 0, "", false, fmt.Errorf("invalid delta id %q: must be positive", m[1])
	}
	desc = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, m[2])
	desc = strings.Join(strings.Fields(strings.Trim(desc, " .")), " ")
	return id, desc, true, nil
}

// stripUndo drops the rollback section of a delta body, if present.
func stripUndo(body string) string {
	if i := strings.Index(body, UndoMarker); i >= 0 {
		return body[:i]
	}
	return body
}

package schemadelta

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Connection is the live database handle the resolver reads from. It is
// borrowed for the duration of one call.
type Connection interface {
	// ProductName reports the database product, e.g. "PostgreSQL".
	ProductName(ctx context.Context) (string, error)

	// ChangeLogTableExists reports whether d's change log table is present.
	ChangeLogTableExists(ctx context.Context, d Dialect) (bool, error)

	// QueryChangeLog returns every row of d's change log table.
	QueryChangeLog(ctx context.Context, d Dialect) ([]ChangeLogEntry, error)
}

// productFromVersion takes the product name from a version() banner such as
// "PostgreSQL 16.2 on x86_64-pc-linux-gnu".
func productFromVersion(banner string) string {
	fields := strings.Fields(banner)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// scanTime accepts the timestamp representations drivers hand back for the
// complete_dt column.
type scanTime struct {
	t time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func (s *scanTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		s.t = time.Time{}
		return nil
	case time.Time:
		s.t = v
		return nil
	case []byte:
		return s.parse(string(v))
	case string:
		return s.parse(v)
	case int64:
		s.t = time.Unix(v, 0).UTC()
		return nil
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (s *scanTime) parse(v string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			s.t = t
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", v)
}

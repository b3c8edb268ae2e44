// Package query builds tenant-scoped, parameterized SQL for partial updates
// and multi-row deletes.
//
// Values are always bound as positional parameters. Column names come from
// the patch types of the calling package, never from request keys.
package query

import (
	"fmt"
	"strings"
	"time"
)

// Set is an ordered list of column assignments for an UPDATE.
//
// The adders apply one removal rule for every entity: a nil pointer or an
// empty string means "leave the column unchanged". An explicit empty string
// therefore never clears a column.
type Set struct {
	columns []string
	args    []interface{}
}

// NewSet returns an empty Set
func NewSet() *Set {
	return &Set{}
}

func (s *Set) add(column string, value interface{}) {
	s.columns = append(s.columns, column)
	s.args = append(s.args, value)
}

// String assigns v to column unless it is nil or empty
func (s *Set) String(column string, v *string) *Set {
	if v != nil && *v != "" {
		s.add(column, *v)
	}
	return s
}

// Int64 assigns v to column unless it is nil
func (s *Set) Int64(column string, v *int64) *Set {
	if v != nil {
		s.add(column, *v)
	}
	return s
}

// Bool assigns v to column unless it is nil
func (s *Set) Bool(column string, v *bool) *Set {
	if v != nil {
		s.add(column, *v)
	}
	return s
}

// Time assigns v to column unless it is nil or zero
func (s *Set) Time(column string, v *time.Time) *Set {
	if v != nil && !v.IsZero() {
		s.add(column, *v)
	}
	return s
}

// Value assigns an already-resolved value, for columns such as password
// hashes that are derived server side.
func (s *Set) Value(column string, v interface{}) *Set {
	s.add(column, v)
	return s
}

// Len returns the number of assignments
func (s *Set) Len() int {
	return len(s.columns)
}

// Columns returns the assigned column names in order
func (s *Set) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Args returns the assigned values in order
func (s *Set) Args() []interface{} {
	out := make([]interface{}, len(s.args))
	copy(out, s.args)
	return out
}

// clause renders "col = $1, col2 = $2" starting at placeholder 1
func (s *Set) clause() string {
	setClauses := make([]string, 0, len(s.columns))
	for i, col := range s.columns {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i+1))
	}
	return strings.Join(setClauses, ", ")
}

package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// SelectQuery builds a SELECT statement incrementally. Builder methods
// record the first error and Compile reports it, so call sites can chain
// without per-call checks.
type SelectQuery struct {
	table    string
	alias    string
	fields   []string
	exprs    []string
	where    conditionSet
	orderBy  []string
	offset   int
	limit    int
	distinct bool
	count    bool
	err      error
}

// Select starts a SELECT builder on table. alias may be empty for
// single-table queries.
func Select(table, alias string) *SelectQuery {
	s := &SelectQuery{table: table, alias: alias, limit: -1}
	if _, err := EscapeIdentifier(table); err != nil {
		s.err = err
	}
	if alias != "" {
		if _, err := EscapeIdentifier(alias); err != nil {
			s.err = err
		}
	}
	return s
}

// Fields adds columns to the select list, qualified with alias when one
// is given.
func (s *SelectQuery) Fields(alias string, cols ...string) *SelectQuery {
	for _, col := range cols {
		name := col
		if alias != "" {
			name = alias + "." + col
		}
		if _, err := EscapeIdentifier(name); err != nil {
			s.recordErr(err)
			return s
		}
		s.fields = append(s.fields, name)
	}
	return s
}

// AddExpression adds a raw select expression with an output alias.
// The expression is trusted; never pass user input.
func (s *SelectQuery) AddExpression(expr, as string) *SelectQuery {
	if _, err := EscapeIdentifier(as); err != nil {
		s.recordErr(err)
		return s
	}
	s.exprs = append(s.exprs, expr+" AS "+as)
	return s
}

// Condition adds "field operator ?" to the WHERE clause.
func (s *SelectQuery) Condition(field, operator string, values ...any) *SelectQuery {
	s.where.add(field, operator, values...)
	return s
}

// IsNull adds "field IS NULL".
func (s *SelectQuery) IsNull(field string) *SelectQuery {
	s.where.add(field, "IS NULL")
	return s
}

// IsNotNull adds "field IS NOT NULL".
func (s *SelectQuery) IsNotNull(field string) *SelectQuery {
	s.where.add(field, "IS NOT NULL")
	return s
}

// OrderBy appends an ordering term. dir must be "ASC" or "DESC".
func (s *SelectQuery) OrderBy(field, dir string) *SelectQuery {
	dir = strings.ToUpper(strings.TrimSpace(dir))
	if dir != "ASC" && dir != "DESC" {
		s.recordErr(fmt.Errorf("invalid order direction %q", dir))
		return s
	}
	if _, err := EscapeIdentifier(field); err != nil {
		s.recordErr(err)
		return s
	}
	s.orderBy = append(s.orderBy, field+" "+dir)
	return s
}

// OrderByExpression appends a raw ordering expression. The expression is
// trusted; never pass user input.
func (s *SelectQuery) OrderByExpression(expr string) *SelectQuery {
	s.orderBy = append(s.orderBy, expr)
	return s
}

// Range restricts the result window. A negative limit means no limit.
func (s *SelectQuery) Range(offset, limit int) *SelectQuery {
	if offset < 0 {
		s.recordErr(fmt.Errorf("negative range offset %d", offset))
		return s
	}
	s.offset = offset
	s.limit = limit
	return s
}

// Distinct makes the query SELECT DISTINCT.
func (s *SelectQuery) Distinct() *SelectQuery {
	s.distinct = true
	return s
}

// CountQuery returns a copy that selects COUNT(*) with the same
// conditions, dropping ordering and range.
func (s *SelectQuery) CountQuery() *SelectQuery {
	c := &SelectQuery{
		table: s.table,
		alias: s.alias,
		where: s.where,
		limit: -1,
		count: true,
		err:   s.err,
	}
	return c
}

// Compile renders the statement and its bound args.
func (s *SelectQuery) Compile() (string, []any, error) {
	if s.err != nil {
		return "", nil, s.err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if s.distinct {
		sb.WriteString("DISTINCT ")
	}
	switch {
	case s.count:
		sb.WriteString("COUNT(*)")
	case len(s.fields) == 0 && len(s.exprs) == 0:
		sb.WriteString("*")
	default:
		sb.WriteString(strings.Join(append(append([]string{}, s.fields...), s.exprs...), ", "))
	}

	sb.WriteString(" FROM ")
	sb.WriteString(s.table)
	if s.alias != "" {
		sb.WriteString(" ")
		sb.WriteString(s.alias)
	}

	whereSQL, args, err := s.where.compile()
	if err != nil {
		return "", nil, err
	}
	if whereSQL != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(whereSQL)
	}

	if len(s.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(s.orderBy, ", "))
	}

	if s.limit >= 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", s.limit))
		if s.offset > 0 {
			sb.WriteString(fmt.Sprintf(" OFFSET %d", s.offset))
		}
	} else if s.offset > 0 {
		// SQLite requires a LIMIT before OFFSET; -1 means unlimited.
		sb.WriteString(fmt.Sprintf(" LIMIT -1 OFFSET %d", s.offset))
	}

	return sb.String(), args, nil
}

// Execute compiles and runs the query against q. The caller owns the rows.
func (s *SelectQuery) Execute(q Querier) (*sql.Rows, error) {
	query, args, err := s.Compile()
	if err != nil {
		return nil, err
	}
	return q.Query(query, args...)
}

// ExecuteRow compiles and runs the query expecting a single row.
func (s *SelectQuery) ExecuteRow(q Querier) (*sql.Row, error) {
	query, args, err := s.Compile()
	if err != nil {
		return nil, err
	}
	return q.QueryRow(query, args...), nil
}

// ExecuteCount runs CountQuery and scans the count.
func (s *SelectQuery) ExecuteCount(q Querier) (int64, error) {
	row, err := s.CountQuery().ExecuteRow(q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}
	return n, nil
}

func (s *SelectQuery) recordErr(err error) {
	if s.err == nil {
		s.err = err
	}
}

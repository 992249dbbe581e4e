package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// InsertQuery builds an INSERT statement, optionally multi-row.
type InsertQuery struct {
	table  string
	fields []string
	rows   [][]any
	err    error
}

// Insert starts an INSERT builder on table.
func Insert(table string) *InsertQuery {
	i := &InsertQuery{table: table}
	if _, err := EscapeIdentifier(table); err != nil {
		i.err = err
	}
	return i
}

// Fields sets the column list. Must be called before Values.
func (i *InsertQuery) Fields(cols ...string) *InsertQuery {
	for _, col := range cols {
		if _, err := EscapeIdentifier(col); err != nil {
			i.recordErr(err)
			return i
		}
	}
	i.fields = cols
	return i
}

// Values appends one row. Repeat for multi-row inserts.
func (i *InsertQuery) Values(values ...any) *InsertQuery {
	if len(i.fields) == 0 {
		i.recordErr(fmt.Errorf("insert into %q: Fields must be set before Values", i.table))
		return i
	}
	if len(values) != len(i.fields) {
		i.recordErr(fmt.Errorf("insert into %q: %d values for %d fields", i.table, len(values), len(i.fields)))
		return i
	}
	i.rows = append(i.rows, values)
	return i
}

// FieldsMap sets columns and a single row from a map, with deterministic
// column order.
func (i *InsertQuery) FieldsMap(fields map[string]any) *InsertQuery {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	vals := make([]any, len(cols))
	for n, col := range cols {
		vals[n] = fields[col]
	}
	return i.Fields(cols...).Values(vals...)
}

// Compile renders the statement and its bound args.
func (i *InsertQuery) Compile() (string, []any, error) {
	if i.err != nil {
		return "", nil, i.err
	}
	if len(i.rows) == 0 {
		return "", nil, fmt.Errorf("insert into %q has no values", i.table)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(i.table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(i.fields, ", "))
	sb.WriteString(") VALUES ")

	var args []any
	for n, row := range i.rows {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		sb.WriteString(placeholders(len(row)))
		sb.WriteString(")")
		args = append(args, row...)
	}
	return sb.String(), args, nil
}

// Execute compiles and runs the statement against q.
func (i *InsertQuery) Execute(q Querier) (sql.Result, error) {
	query, args, err := i.Compile()
	if err != nil {
		return nil, err
	}
	return q.Exec(query, args...)
}

func (i *InsertQuery) recordErr(err error) {
	if i.err == nil {
		i.err = err
	}
}

// UpdateQuery builds an UPDATE statement.
type UpdateQuery struct {
	table  string
	sets   []string
	args   []any
	where  conditionSet
	err    error
}

// Update starts an UPDATE builder on table.
func Update(table string) *UpdateQuery {
	u := &UpdateQuery{table: table}
	if _, err := EscapeIdentifier(table); err != nil {
		u.err = err
	}
	return u
}

// Set adds "field = ?".
func (u *UpdateQuery) Set(field string, value any) *UpdateQuery {
	if _, err := EscapeIdentifier(field); err != nil {
		u.recordErr(err)
		return u
	}
	u.sets = append(u.sets, field+" = ?")
	u.args = append(u.args, value)
	return u
}

// SetExpression adds "field = expr" with no bound value. The expression
// is trusted; never pass user input.
func (u *UpdateQuery) SetExpression(field, expr string) *UpdateQuery {
	if _, err := EscapeIdentifier(field); err != nil {
		u.recordErr(err)
		return u
	}
	u.sets = append(u.sets, field+" = "+expr)
	return u
}

// SetFields adds one Set per map entry, in deterministic column order.
func (u *UpdateQuery) SetFields(fields map[string]any) *UpdateQuery {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		u.Set(col, fields[col])
	}
	return u
}

// Condition adds "field operator ?" to the WHERE clause.
func (u *UpdateQuery) Condition(field, operator string, values ...any) *UpdateQuery {
	u.where.add(field, operator, values...)
	return u
}

// Compile renders the statement and its bound args.
func (u *UpdateQuery) Compile() (string, []any, error) {
	if u.err != nil {
		return "", nil, u.err
	}
	if len(u.sets) == 0 {
		return "", nil, fmt.Errorf("update of %q sets no fields", u.table)
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(u.table)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(u.sets, ", "))

	args := append([]any{}, u.args...)
	whereSQL, whereArgs, err := u.where.compile()
	if err != nil {
		return "", nil, err
	}
	if whereSQL != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(whereSQL)
		args = append(args, whereArgs...)
	}
	return sb.String(), args, nil
}

// Execute compiles, runs the statement, and returns affected rows.
func (u *UpdateQuery) Execute(q Querier) (int64, error) {
	query, args, err := u.Compile()
	if err != nil {
		return 0, err
	}
	res, err := q.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (u *UpdateQuery) recordErr(err error) {
	if u.err == nil {
		u.err = err
	}
}

// DeleteQuery builds a DELETE statement.
type DeleteQuery struct {
	table string
	where conditionSet
	err   error
}

// Delete starts a DELETE builder on table.
func Delete(table string) *DeleteQuery {
	d := &DeleteQuery{table: table}
	if _, err := EscapeIdentifier(table); err != nil {
		d.err = err
	}
	return d
}

// Condition adds "field operator ?" to the WHERE clause.
func (d *DeleteQuery) Condition(field, operator string, values ...any) *DeleteQuery {
	d.where.add(field, operator, values...)
	return d
}

// Compile renders the statement and its bound args. A DELETE without
// conditions is rejected; truncation must be spelled out with schema ops.
func (d *DeleteQuery) Compile() (string, []any, error) {
	if d.err != nil {
		return "", nil, d.err
	}
	whereSQL, args, err := d.where.compile()
	if err != nil {
		return "", nil, err
	}
	if whereSQL == "" {
		return "", nil, fmt.Errorf("refusing to delete from %q without conditions", d.table)
	}
	return "DELETE FROM " + d.table + " WHERE " + whereSQL, args, nil
}

// Execute compiles, runs the statement, and returns affected rows.
func (d *DeleteQuery) Execute(q Querier) (int64, error) {
	query, args, err := d.Compile()
	if err != nil {
		return 0, err
	}
	res, err := q.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpsertQuery builds an INSERT ... ON CONFLICT DO UPDATE statement.
type UpsertQuery struct {
	insert *InsertQuery
	key    string
}

// Upsert starts an upsert builder on table keyed by the given unique column.
func Upsert(table, key string) *UpsertQuery {
	u := &UpsertQuery{insert: Insert(table), key: key}
	if _, err := EscapeIdentifier(key); err != nil {
		u.insert.recordErr(err)
	}
	return u
}

// Fields sets the column list, which must include the key column.
func (u *UpsertQuery) Fields(cols ...string) *UpsertQuery {
	u.insert.Fields(cols...)
	return u
}

// Values appends one row.
func (u *UpsertQuery) Values(values ...any) *UpsertQuery {
	u.insert.Values(values...)
	return u
}

// Compile renders the statement and its bound args. On conflict every
// non-key column is overwritten with the excluded value.
func (u *UpsertQuery) Compile() (string, []any, error) {
	insertSQL, args, err := u.insert.Compile()
	if err != nil {
		return "", nil, err
	}

	var sets []string
	keySeen := false
	for _, col := range u.insert.fields {
		if col == u.key {
			keySeen = true
			continue
		}
		sets = append(sets, col+" = excluded."+col)
	}
	if !keySeen {
		return "", nil, fmt.Errorf("upsert key %q is not among the insert fields", u.key)
	}
	if len(sets) == 0 {
		return insertSQL + " ON CONFLICT(" + u.key + ") DO NOTHING", args, nil
	}
	return insertSQL + " ON CONFLICT(" + u.key + ") DO UPDATE SET " + strings.Join(sets, ", "), args, nil
}

// Execute compiles and runs the statement against q.
func (u *UpsertQuery) Execute(q Querier) (sql.Result, error) {
	query, args, err := u.Compile()
	if err != nil {
		return nil, err
	}
	return q.Exec(query, args...)
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Schema manipulation helpers for SQLite. Regular tables are created by
// goose migrations; these functions serve ad-hoc administration, tests,
// and embedding programs that manage auxiliary tables at runtime.

// FieldSpec describes one column of a TableSpec.
type FieldSpec struct {
	Name    string
	Type    string // SQLite type affinity: INTEGER, TEXT, REAL, BLOB, NUMERIC
	NotNull bool
	Default string // raw SQL default expression, empty for none
}

// IndexSpec describes one index of a TableSpec.
type IndexSpec struct {
	Name   string
	Fields []string
	Unique bool
}

// TableSpec describes a table for CreateTable.
type TableSpec struct {
	Name       string
	Fields     []FieldSpec
	PrimaryKey []string
	Indexes    []IndexSpec
}

// fieldTypes is the column type whitelist for schema DDL.
var fieldTypes = map[string]bool{
	"INTEGER": true, "TEXT": true, "REAL": true, "BLOB": true, "NUMERIC": true,
}

// TableExists reports whether a table is present.
func TableExists(q Querier, table string) (bool, error) {
	if _, err := EscapeIdentifier(table); err != nil {
		return false, err
	}
	var name string
	err := q.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check table %q: %w", table, err)
	}
	return true, nil
}

// FieldExists reports whether a column is present on a table.
func FieldExists(q Querier, table, field string) (bool, error) {
	if _, err := EscapeIdentifier(table); err != nil {
		return false, err
	}
	if _, err := EscapeIdentifier(field); err != nil {
		return false, err
	}
	cols, err := queryStringColumn(q, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, fmt.Errorf("failed to read columns of %q: %w", table, err)
	}
	for _, col := range cols {
		if col == field {
			return true, nil
		}
	}
	return false, nil
}

// IndexExists reports whether an index is present.
func IndexExists(q Querier, index string) (bool, error) {
	if _, err := EscapeIdentifier(index); err != nil {
		return false, err
	}
	var name string
	err := q.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name = ?`, index).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check index %q: %w", index, err)
	}
	return true, nil
}

// CreateTable creates a table and its indexes from spec. Errors if the
// table already exists.
func CreateTable(q Querier, spec TableSpec) error {
	ddl, err := compileCreateTable(spec)
	if err != nil {
		return err
	}
	if _, err := q.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create table %q: %w", spec.Name, err)
	}
	for _, idx := range spec.Indexes {
		if err := AddIndex(q, spec.Name, idx); err != nil {
			return err
		}
	}
	return nil
}

func compileCreateTable(spec TableSpec) (string, error) {
	if _, err := EscapeIdentifier(spec.Name); err != nil {
		return "", err
	}
	if len(spec.Fields) == 0 {
		return "", fmt.Errorf("table %q has no fields", spec.Name)
	}

	var defs []string
	for _, f := range spec.Fields {
		def, err := compileFieldDef(f)
		if err != nil {
			return "", fmt.Errorf("table %q: %w", spec.Name, err)
		}
		defs = append(defs, def)
	}

	if len(spec.PrimaryKey) > 0 {
		for _, col := range spec.PrimaryKey {
			if _, err := EscapeIdentifier(col); err != nil {
				return "", err
			}
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(spec.PrimaryKey, ", ")+")")
	}

	return "CREATE TABLE " + spec.Name + " (" + strings.Join(defs, ", ") + ")", nil
}

func compileFieldDef(f FieldSpec) (string, error) {
	if _, err := EscapeIdentifier(f.Name); err != nil {
		return "", err
	}
	typ := strings.ToUpper(f.Type)
	if !fieldTypes[typ] {
		return "", fmt.Errorf("field %q has unsupported type %q", f.Name, f.Type)
	}
	def := f.Name + " " + typ
	if f.NotNull {
		def += " NOT NULL"
	}
	if f.Default != "" {
		def += " DEFAULT " + f.Default
	}
	return def, nil
}

// DropTable drops a table. Dropping a missing table is not an error.
func DropTable(q Querier, table string) error {
	if _, err := EscapeIdentifier(table); err != nil {
		return err
	}
	if _, err := q.Exec("DROP TABLE IF EXISTS " + table); err != nil {
		return fmt.Errorf("failed to drop table %q: %w", table, err)
	}
	return nil
}

// RenameTable renames a table.
func RenameTable(q Querier, table, newName string) error {
	if _, err := EscapeIdentifier(table); err != nil {
		return err
	}
	if _, err := EscapeIdentifier(newName); err != nil {
		return err
	}
	if _, err := q.Exec("ALTER TABLE " + table + " RENAME TO " + newName); err != nil {
		return fmt.Errorf("failed to rename table %q to %q: %w", table, newName, err)
	}
	return nil
}

// AddField adds a column to an existing table.
func AddField(q Querier, table string, field FieldSpec) error {
	if _, err := EscapeIdentifier(table); err != nil {
		return err
	}
	// SQLite requires a default for NOT NULL columns added to non-empty tables.
	if field.NotNull && field.Default == "" {
		return fmt.Errorf("added field %q must carry a default when NOT NULL", field.Name)
	}
	def, err := compileFieldDef(field)
	if err != nil {
		return err
	}
	if _, err := q.Exec("ALTER TABLE " + table + " ADD COLUMN " + def); err != nil {
		return fmt.Errorf("failed to add field %q to %q: %w", field.Name, table, err)
	}
	return nil
}

// DropField removes a column from an existing table.
// Requires SQLite 3.35+ (modernc.org/sqlite bundles 3.46+).
func DropField(q Querier, table, field string) error {
	if _, err := EscapeIdentifier(table); err != nil {
		return err
	}
	if _, err := EscapeIdentifier(field); err != nil {
		return err
	}
	if _, err := q.Exec("ALTER TABLE " + table + " DROP COLUMN " + field); err != nil {
		return fmt.Errorf("failed to drop field %q from %q: %w", field, table, err)
	}
	return nil
}

// AddIndex creates an index on table from spec. Creating an index that
// already exists is not an error.
func AddIndex(q Querier, table string, spec IndexSpec) error {
	if _, err := EscapeIdentifier(table); err != nil {
		return err
	}
	if _, err := EscapeIdentifier(spec.Name); err != nil {
		return err
	}
	if len(spec.Fields) == 0 {
		return fmt.Errorf("index %q has no fields", spec.Name)
	}
	for _, col := range spec.Fields {
		if _, err := EscapeIdentifier(col); err != nil {
			return err
		}
	}
	kind := "INDEX"
	if spec.Unique {
		kind = "UNIQUE INDEX"
	}
	ddl := "CREATE " + kind + " IF NOT EXISTS " + spec.Name + " ON " + table + " (" + strings.Join(spec.Fields, ", ") + ")"
	if _, err := q.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create index %q on %q: %w", spec.Name, table, err)
	}
	return nil
}

// DropIndex drops an index. Dropping a missing index is not an error.
func DropIndex(q Querier, index string) error {
	if _, err := EscapeIdentifier(index); err != nil {
		return err
	}
	if _, err := q.Exec("DROP INDEX IF EXISTS " + index); err != nil {
		return fmt.Errorf("failed to drop index %q: %w", index, err)
	}
	return nil
}

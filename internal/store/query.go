package store

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern matches the table/field names the builders accept.
// Compiled SQL interpolates identifiers directly, so anything else is
// rejected instead of quoted.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EscapeIdentifier validates a table, field, or index name for direct
// interpolation into SQL. Dotted names ("c.thread") are validated per part.
func EscapeIdentifier(name string) (string, error) {
	for _, part := range strings.Split(name, ".") {
		if !identifierPattern.MatchString(part) {
			return "", fmt.Errorf("invalid identifier %q", name)
		}
	}
	return name, nil
}

// EscapeLike escapes LIKE wildcard characters so value matches literally.
// Use with conditions built as: Condition("body", "LIKE", EscapeLike(v)+"%").
// Compiled LIKE conditions always carry ESCAPE '\'.
func EscapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}

// condOperators is the operator whitelist for builder conditions.
var condOperators = map[string]bool{
	"=": true, "!=": true, "<>": true,
	"<": true, ">": true, "<=": true, ">=": true,
	"LIKE": true, "NOT LIKE": true,
	"IN": true, "NOT IN": true,
	"BETWEEN": true,
	"IS NULL": true, "IS NOT NULL": true,
}

// condition is one WHERE predicate.
type condition struct {
	field    string
	operator string
	values   []any
}

// conditionSet accumulates predicates shared by the select, update, and
// delete builders. Predicates are ANDed.
type conditionSet struct {
	conds []condition
	err   error
}

func (c *conditionSet) add(field, operator string, values ...any) {
	if c.err != nil {
		return
	}
	operator = strings.ToUpper(strings.TrimSpace(operator))
	if !condOperators[operator] {
		c.err = fmt.Errorf("unsupported condition operator %q", operator)
		return
	}
	if _, err := EscapeIdentifier(field); err != nil {
		c.err = err
		return
	}
	switch operator {
	case "IN", "NOT IN":
		if len(values) == 0 {
			c.err = fmt.Errorf("%s condition on %q requires at least one value", operator, field)
			return
		}
	case "BETWEEN":
		if len(values) != 2 {
			c.err = fmt.Errorf("BETWEEN condition on %q requires exactly two values", field)
			return
		}
	case "IS NULL", "IS NOT NULL":
		if len(values) != 0 {
			c.err = fmt.Errorf("%s condition on %q takes no value", operator, field)
			return
		}
	default:
		if len(values) != 1 {
			c.err = fmt.Errorf("%s condition on %q requires exactly one value", operator, field)
			return
		}
	}
	c.conds = append(c.conds, condition{field: field, operator: operator, values: values})
}

// compile renders the accumulated predicates as a WHERE clause body
// (without the WHERE keyword) and its bound args. Empty when no
// conditions were added.
func (c *conditionSet) compile() (string, []any, error) {
	if c.err != nil {
		return "", nil, c.err
	}
	if len(c.conds) == 0 {
		return "", nil, nil
	}

	var sb strings.Builder
	var args []any
	for i, cond := range c.conds {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		switch cond.operator {
		case "IN", "NOT IN":
			sb.WriteString(cond.field)
			sb.WriteByte(' ')
			sb.WriteString(cond.operator)
			sb.WriteString(" (")
			sb.WriteString(placeholders(len(cond.values)))
			sb.WriteByte(')')
			args = append(args, cond.values...)
		case "BETWEEN":
			sb.WriteString(cond.field)
			sb.WriteString(" BETWEEN ? AND ?")
			args = append(args, cond.values...)
		case "IS NULL", "IS NOT NULL":
			sb.WriteString(cond.field)
			sb.WriteByte(' ')
			sb.WriteString(cond.operator)
		case "LIKE", "NOT LIKE":
			sb.WriteString(cond.field)
			sb.WriteByte(' ')
			sb.WriteString(cond.operator)
			sb.WriteString(` ? ESCAPE '\'`)
			args = append(args, cond.values...)
		default:
			sb.WriteString(cond.field)
			sb.WriteByte(' ')
			sb.WriteString(cond.operator)
			sb.WriteString(" ?")
			args = append(args, cond.values...)
		}
	}
	return sb.String(), args, nil
}

// placeholders returns n comma-separated '?' markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}

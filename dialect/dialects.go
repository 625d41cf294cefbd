package dialect

import (
	"database/sql/driver"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// quote delimits every dot separated part of name with open and end,
// doubling end inside a part.
func quote(name, open, end string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = open + strings.ReplaceAll(p, end, end+end) + end
	}
	return strings.Join(parts, ".")
}

// driverValues resolves driver.Valuer implementations so that list encoders
// see plain values.
func driverValues(values []any) ([]any, error) {
	vs := make([]any, len(values))
	for i, v := range values {
		dv, err := driver.DefaultParameterConverter.ConvertValue(v)
		if err != nil {
			return nil, fmt.Errorf("dialect: list element %d: %w", i, err)
		}
		if b, ok := dv.([]byte); ok {
			dv = string(b)
		}
		vs[i] = dv
	}
	return vs, nil
}

func jsonList(values []any) (any, error) {
	vs, err := driverValues(values)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(vs)
	if err != nil {
		return nil, fmt.Errorf("dialect: encode list: %w", err)
	}
	return string(b), nil
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return Postgres }
func (postgresDialect) StatementDelimiter() string { return ";" }
func (postgresDialect) DelimitIdentifier(n string) string { return quote(n, `"`, `"`) }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresDialect) BatchSeparator() string { return "" }
func (postgresDialect) RowVersionGenerated() bool { return false }

// InList compares against an array parameter; the server infers the array
// element type from the column.
func (postgresDialect) InList(column, param string) string {
	return column + " = ANY(" + param + ")"
}

func (postgresDialect) EncodeList(values []any) (any, error) {
	vs, err := driverValues(values)
	if err != nil {
		return nil, err
	}
	return pq.Array(vs), nil
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return MySQL }
func (mysqlDialect) StatementDelimiter() string { return ";" }
func (mysqlDialect) DelimitIdentifier(n string) string { return quote(n, "`", "`") }
func (mysqlDialect) Placeholder(int) string { return "?" }
func (mysqlDialect) BatchSeparator() string { return "" }
func (mysqlDialect) RowVersionGenerated() bool { return false }

func (mysqlDialect) InList(column, param string) string {
	return column + " IN (SELECT `v` FROM JSON_TABLE(" + param + ", '$[*]' COLUMNS (`v` VARCHAR(255) PATH '$')) AS `list`)"
}

func (mysqlDialect) EncodeList(values []any) (any, error) { return jsonList(values) }

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return SQLite }
func (sqliteDialect) StatementDelimiter() string { return ";" }
func (sqliteDialect) DelimitIdentifier(n string) string { return quote(n, `"`, `"`) }
func (sqliteDialect) Placeholder(int) string { return "?" }
func (sqliteDialect) BatchSeparator() string { return "" }
func (sqliteDialect) RowVersionGenerated() bool { return false }

func (sqliteDialect) InList(column, param string) string {
	return column + " IN (SELECT value FROM json_each(" + param + "))"
}

func (sqliteDialect) EncodeList(values []any) (any, error) { return jsonList(values) }

type sqlserverDialect struct{}

func (sqlserverDialect) Name() string { return SQLServer }
func (sqlserverDialect) StatementDelimiter() string { return ";" }
func (sqlserverDialect) DelimitIdentifier(n string) string { return quote(n, "[", "]") }
func (sqlserverDialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }
func (sqlserverDialect) BatchSeparator() string { return "GO" }
func (sqlserverDialect) RowVersionGenerated() bool { return true }

// InList shreds an XML list parameter of the form <L><I>v</I>...</L>. The
// parameter arrives as nvarchar and is cast to xml before shredding.
func (sqlserverDialect) InList(column, param string) string {
	return column + " IN (SELECT T.c.value('.', 'nvarchar(max)') FROM (SELECT CAST(" + param +
		" AS xml) AS x) AS L CROSS APPLY L.x.nodes('/L/I') AS T(c))"
}

func (sqlserverDialect) EncodeList(values []any) (any, error) {
	vs, err := driverValues(values)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString("<L>")
	for _, v := range vs {
		sb.WriteString("<I>")
		if err := xml.EscapeText(&sb, []byte(fmt.Sprint(v))); err != nil {
			return nil, fmt.Errorf("dialect: encode list: %w", err)
		}
		sb.WriteString("</I>")
	}
	sb.WriteString("</L>")
	return sb.String(), nil
}

package db

import "strings"

// QuoteIdentifier returns a double-quoted form of name that is safe to
// splice into SQL anywhere a table or column identifier appears. It is
// never used for literals; callers must first validate the name against
// sqlite_master or the table-info pragma.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

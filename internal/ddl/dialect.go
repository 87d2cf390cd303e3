package ddl

import (
	"fmt"
	"strings"

	"github.com/tordrt/ormsynth/internal/schema"
)

// Dialect selects identifier quoting and column type names
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect maps a user-supplied name to a Dialect
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("invalid dialect: %s (must be 'mysql', 'postgres' or 'sqlite')", name)
	}
}

func (d Dialect) quote(ident string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d Dialect) columnType(t schema.ColumnType) string {
	switch d {
	case Postgres:
		if t == schema.TypeInteger {
			return "integer"
		}
		return "varchar(64)"
	case SQLite:
		if t == schema.TypeInteger {
			return "INTEGER"
		}
		return "TEXT"
	default:
		if t == schema.TypeInteger {
			return "int"
		}
		return "varchar(64)"
	}
}

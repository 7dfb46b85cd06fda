package casbin

import (
	"database/sql"
	"fmt"

	sqladapter "github.com/Blank-Xu/sql-adapter"
)

const DefaultTableName = "casbin_rule"

// NewSQLAdapter keeps casbin rules in tableName. driverName selects the SQL dialect, e.g. "sqlite3".
func NewSQLAdapter(db *sql.DB, driverName, tableName string) (*sqladapter.Adapter, error) {
	if tableName == "" {
		tableName = DefaultTableName
	}

	adapter, err := sqladapter.NewAdapter(db, driverName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin sql adapter: %w", err)
	}

	return adapter, nil
}

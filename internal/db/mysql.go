package db

import (
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// NewMySQLConnection opens the delivery audit database. The DSN should carry
// parseTime=true so created_at scans into time.Time, and multiStatements=true
// for migrations.
func NewMySQLConnection(dsn string, opts PoolOpts) (*sqlx.DB, error) {
	return openSQL("mysql", dsn, opts, 5*time.Second)
}

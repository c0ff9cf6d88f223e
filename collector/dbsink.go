package collector

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// SqlSink appends log lines to a database table with (timestamp,
// channel, line) columns, one row per record. It speaks to ClickHouse,
// MySQL, and PostgreSQL through their database/sql drivers.
type SqlSink struct {
	pool   *sql.DB
	driver string
	dsn    string
	table  string
}

// NewSqlSink creates a new SqlSink for writing to a specified table.
// It takes the bulk of its config from the `DB_DRIVER` and `DSN`
// environment variables.
func NewSqlSink(table string) *SqlSink {
	return &SqlSink{
		driver: os.Getenv("DB_DRIVER"),
		dsn:    os.Getenv("DSN"),
		table:  table,
	}
}

// Connect connects to the database and validates that we're able to
// access it.
func (db *SqlSink) Connect(ctx context.Context) error {
	pool, err := sql.Open(db.driver, db.dsn)
	if err != nil {
		return fmt.Errorf("Unable to connect to db (driver=%q, dsn=%q): %v", db.driver, db.dsn, err)
	}
	db.pool = pool

	return pool.PingContext(ctx)
}

// insertQuery builds the INSERT statement for the configured driver.
// The pgx driver only understands numbered placeholders.
func (db *SqlSink) insertQuery() string {
	// The table name comes from a command-line flag, so string
	// manipulation on the query is tolerable here.
	placeholders := "(?, ?, ?)"
	if db.driver == "pgx" {
		placeholders = "($1, $2, $3)"
	}
	return "INSERT INTO " + db.table + " (timestamp, channel, line) values " + placeholders
}

// WriteLine implements LogSink.
func (db *SqlSink) WriteLine(ctx context.Context, channel string, line []byte) error {
	_, err := db.pool.ExecContext(ctx, db.insertQuery(), time.Now().Unix(), channel, string(line))
	if err != nil {
		return fmt.Errorf("Unable to insert: %v", err)
	}

	return nil
}

// Close releases the connection pool.
func (db *SqlSink) Close() error {
	if db.pool == nil {
		return nil
	}
	return db.pool.Close()
}

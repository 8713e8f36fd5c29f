// Package ledger provides the optional MySQL run ledger for dbtctl.
// When enabled, every model invocation appends one row, and an advisory
// lock prevents two concurrent runs of the same environment.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/arkdata/dbtctl/internal/config"
)

// Entry is one ledger row: a single model invocation and its outcome.
type Entry struct {
	Environment string
	Model       string
	Status      string // succeeded or failed
	Error       string // empty on success
	StartedAt   time.Time
	Duration    time.Duration
}

// Ledger manages the MySQL connection and run bookkeeping.
type Ledger struct {
	DB    *sql.DB
	cfg   *config.LedgerConfig
	table string
}

// New creates a Ledger from configuration. Connect must be called before use.
func New(cfg *config.LedgerConfig) *Ledger {
	table := cfg.Table
	if table == "" {
		table = "dbt_runs"
	}
	return &Ledger{
		cfg:   cfg,
		table: table,
	}
}

// Connect establishes the database connection with retry.
func (l *Ledger) Connect(ctx context.Context) error {
	db, err := l.connectWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to ledger database: %w", err)
	}
	l.DB = db
	return nil
}

// connectWithRetry attempts to connect with exponential backoff.
func (l *Ledger) connectWithRetry(ctx context.Context) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = l.connect()
		if err == nil {
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

// connect creates a database connection.
func (l *Ledger) connect() (*sql.DB, error) {
	dsn := BuildDSN(&l.cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	if l.cfg.Database.MaxConnections > 0 {
		db.SetMaxOpenConns(l.cfg.Database.MaxConnections)
	}
	if l.cfg.Database.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(l.cfg.Database.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDSN constructs a MySQL DSN from configuration.
func BuildDSN(cfg *config.DatabaseConfig) string {
	// Format: user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
	)

	if cfg.Database != "" {
		dsn += cfg.Database
	}

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

// EnsureSchema creates the ledger table if it does not exist.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		environment VARCHAR(64) NOT NULL,
		model VARCHAR(255) NOT NULL,
		status VARCHAR(16) NOT NULL,
		error TEXT,
		started_at DATETIME(3) NOT NULL,
		duration_ms BIGINT NOT NULL,
		PRIMARY KEY (id),
		KEY idx_environment_started (environment, started_at)
	)`, quoteIdentifier(l.table))

	if _, err := l.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create ledger table: %w", err)
	}
	return nil
}

// Record appends one entry to the ledger.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (environment, model, status, error, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?)",
		quoteIdentifier(l.table),
	)

	_, err := l.DB.ExecContext(ctx, query,
		e.Environment,
		e.Model,
		e.Status,
		e.Error,
		e.StartedAt,
		e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// Ping verifies the connection is alive.
func (l *Ledger) Ping(ctx context.Context) error {
	if l.DB == nil {
		return fmt.Errorf("ledger not connected")
	}
	if err := l.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ledger ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	if l.DB == nil {
		return nil
	}
	if err := l.DB.Close(); err != nil {
		return fmt.Errorf("ledger close: %w", err)
	}
	return nil
}

// quoteIdentifier wraps a MySQL identifier in backticks.
func quoteIdentifier(name string) string {
	return "`" + name + "`"
}

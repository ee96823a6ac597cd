package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/clawguard/clawguard/internal/circuitbreaker"
)

// Config holds Postgres connection configuration for the audit store.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	IdleConnections int
	MaxLifetime     time.Duration
}

// Client owns the audit store's circuit-breaker-protected Postgres
// connection. Unlike the gateway's database client, writes here are
// always synchronous: log_scan must return a scan_id in the same HTTP
// response, so there is no async write queue to buffer around.
type Client struct {
	db     *circuitbreaker.DatabaseWrapper
	sqlxDB *sqlx.DB
	logger *zap.Logger
	stopCh chan struct{}
}

// NewClient opens a connection pool to Postgres, wraps it in a circuit
// breaker, and verifies connectivity before returning.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 25
	}
	if cfg.IdleConnections == 0 {
		cfg.IdleConnections = 5
	}
	if cfg.MaxLifetime == 0 {
		cfg.MaxLifetime = 5 * time.Minute
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "require"
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	rawDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	rawDB.SetMaxOpenConns(cfg.MaxConnections)
	rawDB.SetMaxIdleConns(cfg.IdleConnections)
	rawDB.SetConnMaxLifetime(cfg.MaxLifetime)

	wrapped := circuitbreaker.NewDatabaseWrapper(rawDB, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wrapped.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}

	client := &Client{
		db:     wrapped,
		sqlxDB: sqlx.NewDb(rawDB, "postgres"),
		logger: logger,
		stopCh: make(chan struct{}),
	}
	go client.healthCheck()

	logger.Info("audit database client initialized",
		zap.String("host", cfg.Host),
		zap.Int("max_connections", cfg.MaxConnections))

	return client, nil
}

func (c *Client) healthCheck() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.db.PingContext(ctx); err != nil {
				c.logger.Error("audit database health check failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// Ping verifies the database connection is reachable, used by the
// readiness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Wrapper exposes the circuit-breaker-protected connection so a
// health.DatabaseHealthChecker can be built from it.
func (c *Client) Wrapper() *circuitbreaker.DatabaseWrapper {
	return c.db
}

// RawDB exposes the underlying *sql.DB for pool-stats introspection.
func (c *Client) RawDB() *sql.DB {
	return c.db.GetDB()
}

// Close shuts down the health-check loop and the underlying connection pool.
func (c *Client) Close() error {
	close(c.stopCh)
	return c.db.Close()
}

// WithTransaction runs fn inside a circuit-breaker-protected transaction,
// committing on success and rolling back on error or panic.
func (c *Client) WithTransaction(ctx context.Context, fn func(*circuitbreaker.TxWrapper) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

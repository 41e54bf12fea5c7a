package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"maimai/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Profiles      string
	ModelCosts    string
	Projects      string
	Threads       string
	Messages      string
	Playlists     string
	PlaylistSongs string
	Feeds         string
	FeedItems     string
	SocialPosts   string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Profiles:      fmt.Sprintf("%sprofiles", prefix),
		ModelCosts:    fmt.Sprintf("%smodel_costs", prefix),
		Projects:      fmt.Sprintf("%sprojects", prefix),
		Threads:       fmt.Sprintf("%sthreads", prefix),
		Messages:      fmt.Sprintf("%smessages", prefix),
		Playlists:     fmt.Sprintf("%splaylists", prefix),
		PlaylistSongs: fmt.Sprintf("%splaylist_songs", prefix),
		Feeds:         fmt.Sprintf("%sfeeds", prefix),
		FeedItems:     fmt.Sprintf("%sfeed_items", prefix),
		SocialPosts:   fmt.Sprintf("%ssocial_posts", prefix),
	}
}

// CreateConnectionPool creates a pgx pool and pings it.
//
// Port 6543 is the Supabase transaction pooler (PgBouncer), which does not
// support prepared statements. Unless the connection string sets
// default_query_exec_mode explicitly, that port switches to
// QueryExecModeCacheDescribe, which stays on the extended protocol so JSONB
// parameters still encode.
//
// Table names are interpolated with fmt.Sprintf before the SQL reaches the
// database, so each environment prefix gets its own cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Configure pool size
	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	config.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool.
// This enables repositories to automatically participate in transactions when they exist.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	// Check if there's a transaction in the context
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	// No transaction, use the pool
	return pool
}

// WithTx runs fn in a transaction. When ctx already carries one, fn runs in
// a savepoint of it instead.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	if tx := repositories.GetTx(ctx); tx != nil {
		return pgx.BeginFunc(ctx, tx, fn)
	}
	return pgx.BeginFunc(ctx, pool, fn)
}

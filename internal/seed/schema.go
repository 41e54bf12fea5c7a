package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"maimai/internal/repository/postgres"
)

// EnsureSchema creates tables and indexes that do not exist yet.
// Every statement is idempotent so it can run on each deploy.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "pgcrypto"`); err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Profiles + ` (
			user_id UUID PRIMARY KEY,
			credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.ModelCosts + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			model TEXT NOT NULL,
			in_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
			out_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
			markup DOUBLE PRECISION NOT NULL DEFAULT 1,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			predicted_cost INTEGER,
			predicted_cost_date TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Projects + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			name TEXT NOT NULL,
			system_prompt TEXT,
			hidden BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Threads + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			project_id UUID REFERENCES ` + tables.Projects + `(id) ON DELETE SET NULL,
			title TEXT NOT NULL,
			system_prompt TEXT,
			hidden BOOLEAN NOT NULL DEFAULT FALSE,
			send_locked_until TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Messages + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			thread_id UUID NOT NULL REFERENCES ` + tables.Threads + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
			content TEXT NOT NULL,
			model TEXT,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			credit_cost INTEGER NOT NULL DEFAULT 0,
			ten_x_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
			summary TEXT,
			key_information JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Playlists + ` (
			id TEXT NOT NULL,
			user_id UUID NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			last_synced_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.PlaylistSongs + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			playlist_id TEXT NOT NULL,
			track_id TEXT NOT NULL,
			track_name TEXT NOT NULL,
			artist_name TEXT NOT NULL DEFAULT '',
			album_name TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0,
			added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			removed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Feeds + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			last_fetched_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, url)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.FeedItems + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			feed_id UUID NOT NULL REFERENCES ` + tables.Feeds + `(id) ON DELETE CASCADE,
			guid TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			link TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			published_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (feed_id, guid)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.SocialPosts + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			page_id TEXT NOT NULL,
			remote_post_id TEXT NOT NULL,
			message_id UUID REFERENCES ` + tables.Messages + `(id) ON DELETE SET NULL,
			content TEXT NOT NULL,
			link TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	indexes := []string{
		// one active rate per model
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `model_costs_active ON ` + tables.ModelCosts + `(model) WHERE active`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `projects_name_visible ON ` + tables.Projects + `(user_id, name) WHERE NOT hidden`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `threads_user_updated ON ` + tables.Threads + `(user_id, updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `messages_thread_created ON ` + tables.Messages + `(thread_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `messages_model_created ON ` + tables.Messages + `(model, created_at DESC) WHERE role = 'assistant'`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `playlist_songs_order ON ` + tables.PlaylistSongs + `(playlist_id, user_id, position)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `playlist_songs_active_track ON ` + tables.PlaylistSongs + `(playlist_id, user_id, track_id) WHERE removed_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `social_posts_user_created ON ` + tables.SocialPosts + `(user_id, created_at DESC)`,
	}

	for _, stmt := range append(statements, indexes...) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}

// DropTables drops every table in dependency order
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range AllTables(tables) {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// AllTables lists table names with dependents before their parents
func AllTables(tables *postgres.TableNames) []string {
	return []string{
		tables.SocialPosts,
		tables.FeedItems,
		tables.Feeds,
		tables.PlaylistSongs,
		tables.Playlists,
		tables.Messages,
		tables.Threads,
		tables.Projects,
		tables.ModelCosts,
		tables.Profiles,
	}
}

package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"maimai/internal/domain"
	models "maimai/internal/domain/models/billing"
	billingRepo "maimai/internal/domain/repositories/billing"
	"maimai/internal/repository/postgres"
)

// PostgresProfileRepository implements billingRepo.ProfileRepository.
// Every balance change is a single conditional statement, so concurrent
// debits cannot overdraw.
type PostgresProfileRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewProfileRepository creates a new PostgresProfileRepository
func NewProfileRepository(config *postgres.RepositoryConfig) billingRepo.ProfileRepository {
	return &PostgresProfileRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Get returns the profile, creating a zero-balance row on first access
func (r *PostgresProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, credits, created_at, updated_at)
		VALUES ($1, 0, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, credits, created_at, updated_at
	`, r.tables.Profiles)

	var profile models.Profile
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Credits,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &profile, nil
}

// DebitIfSufficient subtracts amount only when the balance covers it
func (r *PostgresProfileRepository) DebitIfSufficient(ctx context.Context, userID string, amount int) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET credits = credits - $2, updated_at = now()
		WHERE user_id = $1 AND credits >= $2
		RETURNING credits
	`, r.tables.Profiles)

	var balance int
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !postgres.IsPgNoRowsError(err) {
		return 0, fmt.Errorf("debit credits: %w", err)
	}

	profile, getErr := r.Get(ctx, userID)
	if getErr != nil {
		return 0, getErr
	}
	return 0, &domain.InsufficientCreditsError{
		Balance:  profile.Credits,
		Required: amount,
	}
}

// Credit adds amount, creating the profile when missing
func (r *PostgresProfileRepository) Credit(ctx context.Context, userID string, amount int) (int, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, credits, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (user_id) DO UPDATE
		SET credits = %s.credits + EXCLUDED.credits, updated_at = now()
		RETURNING credits
	`, r.tables.Profiles, r.tables.Profiles)

	var balance int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, userID, amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("credit profile: %w", err)
	}

	return balance, nil
}

// DebitClamped subtracts amount, flooring the balance at zero
func (r *PostgresProfileRepository) DebitClamped(ctx context.Context, userID string, amount int) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET credits = GREATEST(credits - $2, 0), updated_at = now()
		WHERE user_id = $1
		RETURNING credits
	`, r.tables.Profiles)

	var balance int
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("debit credits: %w", err)
	}

	return balance, nil
}

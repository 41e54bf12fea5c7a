package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	models "maimai/internal/domain/models/billing"
	billingRepo "maimai/internal/domain/repositories/billing"
	"maimai/internal/repository/postgres"
)

const modelCostColumns = `id, model, in_cost, out_cost, markup, active, predicted_cost, predicted_cost_date, created_at`

// PostgresModelCostRepository implements billingRepo.ModelCostRepository.
// A partial unique index on (model) WHERE active keeps one active row per model.
type PostgresModelCostRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewModelCostRepository creates a new PostgresModelCostRepository
func NewModelCostRepository(config *postgres.RepositoryConfig) billingRepo.ModelCostRepository {
	return &PostgresModelCostRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetActive returns (nil, nil) when the model has no active rate
func (r *PostgresModelCostRepository) GetActive(ctx context.Context, model string) (*models.ModelCost, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE model = $1 AND active
	`, modelCostColumns, r.tables.ModelCosts)

	executor := postgres.GetExecutor(ctx, r.pool)
	cost, err := scanModelCost(executor.QueryRow(ctx, query, model))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get model cost: %w", err)
	}

	return cost, nil
}

// ListActive returns the active rate card ordered by model
func (r *PostgresModelCostRepository) ListActive(ctx context.Context) ([]models.ModelCost, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE active
		ORDER BY model
	`, modelCostColumns, r.tables.ModelCosts)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list model costs: %w", err)
	}
	defer rows.Close()

	costs := []models.ModelCost{}
	for rows.Next() {
		cost, err := scanModelCost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model cost: %w", err)
		}
		costs = append(costs, *cost)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model costs: %w", err)
	}

	return costs, nil
}

// Upsert deactivates the current row for the model and inserts cost as active
func (r *PostgresModelCostRepository) Upsert(ctx context.Context, cost *models.ModelCost) error {
	deactivate := fmt.Sprintf(`
		UPDATE %s SET active = false
		WHERE model = $1 AND active
	`, r.tables.ModelCosts)

	insert := fmt.Sprintf(`
		INSERT INTO %s (model, in_cost, out_cost, markup, active, predicted_cost, predicted_cost_date, created_at)
		VALUES ($1, $2, $3, $4, true, $5, $6, now())
		RETURNING id, created_at
	`, r.tables.ModelCosts)

	err := postgres.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deactivate, cost.Model); err != nil {
			return fmt.Errorf("deactivate model cost: %w", err)
		}
		return tx.QueryRow(ctx, insert,
			cost.Model,
			cost.InCost,
			cost.OutCost,
			cost.Markup,
			cost.PredictedCost,
			cost.PredictedCostDate,
		).Scan(&cost.ID, &cost.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("upsert model cost: %w", err)
	}

	cost.Active = true
	return nil
}

// SetPredictedCost stores a prediction on the active row
func (r *PostgresModelCostRepository) SetPredictedCost(ctx context.Context, model string, predicted int, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET predicted_cost = $2, predicted_cost_date = $3
		WHERE model = $1 AND active
	`, r.tables.ModelCosts)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, model, predicted, at)
	if err != nil {
		return fmt.Errorf("set predicted cost: %w", err)
	}
	if result.RowsAffected() == 0 {
		r.logger.Warn("no active rate to attach prediction to", "model", model)
	}

	return nil
}

func scanModelCost(row pgx.Row) (*models.ModelCost, error) {
	var cost models.ModelCost
	err := row.Scan(
		&cost.ID,
		&cost.Model,
		&cost.InCost,
		&cost.OutCost,
		&cost.Markup,
		&cost.Active,
		&cost.PredictedCost,
		&cost.PredictedCostDate,
		&cost.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cost, nil
}

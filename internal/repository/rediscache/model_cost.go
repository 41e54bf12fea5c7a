package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	models "maimai/internal/domain/models/billing"
	billingRepo "maimai/internal/domain/repositories/billing"
)

// missingRate marks a model with no active rate so misses are cached too
const missingRate = "null"

// ModelCostRepository is a read-through redis layer over the rate card.
// Writes go to the wrapped repository and evict the model's key. Redis
// failures degrade to the wrapped repository.
type ModelCostRepository struct {
	next   billingRepo.ModelCostRepository
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewModelCostRepository wraps next. prefix namespaces keys per environment.
func NewModelCostRepository(next billingRepo.ModelCostRepository, rdb *redis.Client, ttl time.Duration, prefix string, logger *slog.Logger) *ModelCostRepository {
	return &ModelCostRepository{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

var _ billingRepo.ModelCostRepository = (*ModelCostRepository)(nil)

func (r *ModelCostRepository) key(model string) string {
	return r.prefix + "model_cost:" + model
}

// GetActive serves from redis when possible
func (r *ModelCostRepository) GetActive(ctx context.Context, model string) (*models.ModelCost, error) {
	raw, err := r.rdb.Get(ctx, r.key(model)).Bytes()
	switch {
	case err == nil:
		if string(raw) == missingRate {
			return nil, nil
		}
		var cost models.ModelCost
		if jsonErr := json.Unmarshal(raw, &cost); jsonErr == nil {
			return &cost, nil
		}
		r.logger.Warn("discarding undecodable cached rate", "model", model)
	case errors.Is(err, redis.Nil):
	default:
		r.logger.Warn("redis read failed, using database", "model", model, "error", err)
	}

	cost, err := r.next.GetActive(ctx, model)
	if err != nil {
		return nil, err
	}
	r.store(ctx, model, cost)
	return cost, nil
}

// ListActive always reads the wrapped repository
func (r *ModelCostRepository) ListActive(ctx context.Context) ([]models.ModelCost, error) {
	return r.next.ListActive(ctx)
}

// Upsert writes through and evicts the cached rate
func (r *ModelCostRepository) Upsert(ctx context.Context, cost *models.ModelCost) error {
	if err := r.next.Upsert(ctx, cost); err != nil {
		return err
	}
	r.evict(ctx, cost.Model)
	return nil
}

// SetPredictedCost writes through and evicts the cached rate
func (r *ModelCostRepository) SetPredictedCost(ctx context.Context, model string, predicted int, at time.Time) error {
	if err := r.next.SetPredictedCost(ctx, model, predicted, at); err != nil {
		return err
	}
	r.evict(ctx, model)
	return nil
}

func (r *ModelCostRepository) store(ctx context.Context, model string, cost *models.ModelCost) {
	value := []byte(missingRate)
	if cost != nil {
		data, err := json.Marshal(cost)
		if err != nil {
			return
		}
		value = data
	}
	if err := r.rdb.Set(ctx, r.key(model), value, r.ttl).Err(); err != nil {
		r.logger.Warn("redis write failed", "model", model, "error", err)
	}
}

func (r *ModelCostRepository) evict(ctx context.Context, model string) {
	if err := r.rdb.Del(ctx, r.key(model)).Err(); err != nil {
		r.logger.Warn("redis evict failed", "model", model, "error", err)
	}
}

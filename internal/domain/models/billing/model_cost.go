package billing

import (
	"time"
)

// ImageModel is the rate-card key holding the flat per-image credit cost.
const ImageModel = "image-alpha-001"

// ModelCost is a pricing record for one model. At most one row per model is active.
type ModelCost struct {
	ID                string     `json:"id" db:"id"`
	Model             string     `json:"model" db:"model"`
	InCost            float64    `json:"in_cost" db:"in_cost"`
	OutCost           float64    `json:"out_cost" db:"out_cost"`
	Markup            float64    `json:"markup" db:"markup"`
	Active            bool       `json:"active" db:"active"`
	PredictedCost     *int       `json:"predicted_cost,omitempty" db:"predicted_cost"`
	PredictedCostDate *time.Time `json:"predicted_cost_date,omitempty" db:"predicted_cost_date"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

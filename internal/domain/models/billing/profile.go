package billing

import (
	"time"
)

// Profile holds the user's credit balance.
// Credits only change through message debits, refunds and purchases.
type Profile struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Credits   int       `json:"credits" db:"credits"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

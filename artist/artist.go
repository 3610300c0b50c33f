package artist

import "github.com/shopspring/decimal"

// Artist describes a creator offering subscription tiers. TotalSubscribers
// and TotalEarnings are denormalized aggregates owned exclusively by the
// webhook reconciliation engine; no other writer may touch them.
type Artist struct {
	ID               string          `json:"id" gorm:"primaryKey"`
	Email            string          `json:"email" gorm:"uniqueIndex"`
	DisplayName      string          `json:"displayName"`
	TotalSubscribers int64           `json:"totalSubscribers" gorm:"not null;default:0"`
	TotalEarnings    decimal.Decimal `json:"totalEarnings" gorm:"type:numeric;not null;default:0"`
}

package subscription

import (
	"time"

	"github.com/Shockvaluemedia/directfanz-billing/artist"
	"github.com/Shockvaluemedia/directfanz-billing/fan"
	"github.com/Shockvaluemedia/directfanz-billing/tier"

	"github.com/shopspring/decimal"
)

// Subscription describes a fan's paid relationship to one pricing tier of
// one artist. ExternalID corresponds to the payment provider's subscription
// ID and is the sole join key for all webhook lookups.
type Subscription struct {
	ID                 string          `json:"id" gorm:"primaryKey"`
	ExternalID         string          `json:"externalId" gorm:"uniqueIndex"`
	FanID              string          `json:"fanId" gorm:"index"`
	ArtistID           string          `json:"artistId" gorm:"index"`
	TierID             string          `json:"tierId" gorm:"index"`
	Amount             decimal.Decimal `json:"amount" gorm:"type:numeric"`
	Status             Status          `json:"status" gorm:"index"`
	CurrentPeriodStart time.Time       `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time       `json:"currentPeriodEnd"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`

	Fan    fan.Fan       `json:"fan" gorm:"foreignKey:FanID"`
	Artist artist.Artist `json:"artist" gorm:"foreignKey:ArtistID"`
	Tier   tier.Tier     `json:"tier" gorm:"foreignKey:TierID"`
}

// PaymentFailure is an append-only audit record created each time an invoice
// payment fails. Rows are never updated or deleted by the engine.
type PaymentFailure struct {
	ID             string          `json:"id" gorm:"primaryKey"`
	SubscriptionID string          `json:"subscriptionId" gorm:"index"`
	InvoiceID      string          `json:"invoiceId"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric"`
	AttemptCount   int64           `json:"attemptCount"`
	NextRetryAt    *time.Time      `json:"nextRetryAt"` // nil means no further automatic retry
	Reason         string          `json:"reason"`
	CreatedAt      time.Time       `json:"createdAt"`
}

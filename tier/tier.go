package tier

import "github.com/shopspring/decimal"

// Tier is a priced subscription level offered by an artist. SubscriberCount
// mirrors the number of ACTIVE subscriptions referencing the tier; it is
// maintained incrementally by the reconciliation engine, never recomputed
// by full scan.
type Tier struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	ArtistID        string          `json:"artistId" gorm:"index"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	MinimumPrice    decimal.Decimal `json:"minimumPrice" gorm:"type:numeric"`
	SubscriberCount int64           `json:"subscriberCount" gorm:"not null;default:0"`
}

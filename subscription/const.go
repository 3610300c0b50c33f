package subscription

import "github.com/shopspring/decimal"

// Status is the custom type to define the current state of a subscription
type Status string

// Defining the possible Status values of a Subscription
const (
	StatusActive   Status = "ACTIVE"
	StatusPastDue  Status = "PAST_DUE"
	StatusCanceled Status = "CANCELED"
)

// PlatformFeeRate is the fixed fraction of each gross payment retained by
// the platform before crediting artist earnings.
var PlatformFeeRate = decimal.NewFromFloat(0.05)

// InitialPeriodDays is the fixed length of the first billing period assigned
// on checkout completion, regardless of the provider's billing cadence.
const InitialPeriodDays = 30

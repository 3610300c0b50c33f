package webhook

// The five provider event types reconciled by the engine. Anything else is
// acknowledged and ignored.
const (
	EventCheckoutCompleted   string = "checkout.session.completed"
	EventInvoiceSucceeded           = "invoice.payment_succeeded"
	EventInvoiceFailed              = "invoice.payment_failed"
	EventSubscriptionUpdated        = "customer.subscription.updated"
	EventSubscriptionDeleted        = "customer.subscription.deleted"
)

// checkoutMetadata is the application metadata attached to a checkout
// session at creation time. All fields are required; a session missing any
// of them is logged and acknowledged without mutating state.
type checkoutMetadata struct {
	FanID    string `json:"fanId" validate:"required"`
	ArtistID string `json:"artistId" validate:"required"`
	TierID   string `json:"tierId" validate:"required"`
	Amount   string `json:"amount" validate:"required"`
}

// checkoutSession carries the fields of checkout.session.completed that the
// engine consumes
type checkoutSession struct {
	ID           string           `json:"id"`
	Subscription string           `json:"subscription"`
	Metadata     checkoutMetadata `json:"metadata"`
}

// invoice carries the fields of invoice.payment_succeeded and
// invoice.payment_failed that the engine consumes. Amounts are in minor
// units, periods in epoch seconds.
type invoice struct {
	ID                 string `json:"id"`
	Subscription       string `json:"subscription"`
	AmountPaid         int64  `json:"amount_paid"`
	AmountDue          int64  `json:"amount_due"`
	AttemptCount       int64  `json:"attempt_count"`
	NextPaymentAttempt int64  `json:"next_payment_attempt"` // zero means no further retry
	PeriodStart        int64  `json:"period_start"`
	PeriodEnd          int64  `json:"period_end"`

	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// providerSubscription carries the fields of the customer.subscription.*
// events that the engine consumes
type providerSubscription struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
}

package notification

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComposeWelcome(t *testing.T) {
	msg := ComposeWelcome(WelcomeOptions{
		To:         "fan@example.com",
		FanName:    "Alex",
		ArtistName: "Nova",
		TierName:   "Backstage",
		SiteName:   "DirectFanz",
	})

	assert.Equal(t, "fan@example.com", msg.To)
	assert.Contains(t, msg.Subject, "Nova")
	assert.Contains(t, msg.Text, "Backstage")
	assert.Contains(t, msg.HTML, "Backstage")
	assert.Contains(t, msg.Text, "Alex")
}

func TestComposePaymentFailedWithRetry(t *testing.T) {
	retryAt := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	msg := ComposePaymentFailed(PaymentFailedOptions{
		To:           "fan@example.com",
		FanName:      "Alex",
		ArtistName:   "Nova",
		AmountDue:    decimal.NewFromFloat(10.00),
		AttemptCount: 2,
		NextRetryAt:  &retryAt,
		SiteName:     "DirectFanz",
	})

	assert.Contains(t, msg.Text, "$10.00")
	assert.Contains(t, msg.Text, "attempt 2")
	assert.Contains(t, msg.Text, "March 15, 2024")
	assert.Contains(t, msg.HTML, "March 15, 2024")
	assert.NotContains(t, msg.Text, "update your payment method")
}

func TestComposePaymentFailedNoRetry(t *testing.T) {
	msg := ComposePaymentFailed(PaymentFailedOptions{
		To:           "fan@example.com",
		FanName:      "Alex",
		ArtistName:   "Nova",
		AmountDue:    decimal.NewFromFloat(5.99),
		AttemptCount: 4,
		NextRetryAt:  nil,
		SiteName:     "DirectFanz",
	})

	assert.Contains(t, msg.Text, "$5.99")
	assert.Contains(t, msg.Text, "update your payment method")
	assert.NotContains(t, msg.Text, "automatically retry")
}

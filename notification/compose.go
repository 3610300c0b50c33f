package notification

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// WelcomeOptions carries the display data for a subscription welcome email
type WelcomeOptions struct {
	To         string
	FanName    string
	ArtistName string
	TierName   string
	SiteName   string
}

// ComposeWelcome builds the email sent to a fan after checkout completes
func ComposeWelcome(options WelcomeOptions) Message {
	text := "Hi " + options.FanName + ",\n\n" +
		"You are now subscribed to the " + options.TierName + " tier of " +
		options.ArtistName + " on " + options.SiteName + ".\n\n" +
		"You can manage your subscription from your account page at any time.\n\n" +
		"Thanks for supporting " + options.ArtistName + "!"
	html := "<!doctype html><html><body>" +
		"<p>Hi " + options.FanName + ",</p>" +
		"<p>You are now subscribed to the <b>" + options.TierName + "</b> tier of <b>" +
		options.ArtistName + "</b> on " + options.SiteName + ".</p>" +
		"<p>You can manage your subscription from your account page at any time.</p>" +
		"<p>Thanks for supporting " + options.ArtistName + "!</p>" +
		"</body></html>"

	return Message{
		To:      options.To,
		Subject: "Welcome to " + options.ArtistName + "'s " + options.TierName + " tier",
		HTML:    html,
		Text:    text,
	}
}

// PaymentFailedOptions carries the display data for a failed payment email
type PaymentFailedOptions struct {
	To           string
	FanName      string
	ArtistName   string
	AmountDue    decimal.Decimal
	AttemptCount int64
	NextRetryAt  *time.Time
	SiteName     string
}

// ComposePaymentFailed builds the email sent to a fan when an invoice
// payment fails. If no further retry is scheduled, the email asks the fan to
// update their payment method instead of announcing a retry date.
func ComposePaymentFailed(options PaymentFailedOptions) Message {
	amount := "$" + options.AmountDue.StringFixed(2)

	var retryText, retryHTML string
	if options.NextRetryAt != nil {
		when := options.NextRetryAt.Format("January 2, 2006")
		retryText = "We will automatically retry the charge on " + when + "."
		retryHTML = "<p>We will automatically retry the charge on <b>" + when + "</b>.</p>"
	} else {
		retryText = "No further automatic attempts are scheduled. Please update " +
			"your payment method to keep your subscription active."
		retryHTML = "<p>No further automatic attempts are scheduled. Please " +
			"<b>update your payment method</b> to keep your subscription active.</p>"
	}

	text := "Hi " + options.FanName + ",\n\n" +
		"Your payment of " + amount + " for your subscription to " +
		options.ArtistName + " could not be processed (attempt " +
		strconv.FormatInt(options.AttemptCount, 10) + ").\n\n" +
		retryText + "\n\n" +
		"- The " + options.SiteName + " team"
	html := "<!doctype html><html><body>" +
		"<p>Hi " + options.FanName + ",</p>" +
		"<p>Your payment of <b>" + amount + "</b> for your subscription to <b>" +
		options.ArtistName + "</b> could not be processed (attempt " +
		strconv.FormatInt(options.AttemptCount, 10) + ").</p>" +
		retryHTML +
		"<p>- The " + options.SiteName + " team</p>" +
		"</body></html>"

	return Message{
		To:      options.To,
		Subject: "Payment failed for your " + options.ArtistName + " subscription",
		HTML:    html,
		Text:    text,
	}
}

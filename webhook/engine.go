package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shockvaluemedia/directfanz-billing/notification"
	"github.com/Shockvaluemedia/directfanz-billing/subscription"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"go.uber.org/zap"
)

var validate *validator.Validate = validator.New()

// SubscriptionStore is the storage collaborator of the engine. The gorm
// subscription.Manager is the production implementation; each method is a
// single atomic transaction on its side.
type SubscriptionStore interface {
	CreateFromCheckout(ctx context.Context, opt subscription.CheckoutOptions) (*subscription.Subscription, bool, error)
	ApplyPayment(ctx context.Context, opt subscription.PaymentOptions) (*subscription.Subscription, error)
	RecordFailure(ctx context.Context, opt subscription.FailureOptions) (*subscription.Subscription, error)
	SyncStatus(ctx context.Context, opt subscription.StatusOptions) (*subscription.Subscription, error)
	Cancel(ctx context.Context, externalID string) (*subscription.Subscription, error)
}

// providerStatuses is the closed set of provider status strings accepted by
// the subscription-updated handler. Anything outside it is a reportable
// anomaly: logged and not stored.
var providerStatuses = map[string]subscription.Status{
	"active":   subscription.StatusActive,
	"past_due": subscription.StatusPastDue,
	"canceled": subscription.StatusCanceled,
}

// EngineOptions contains the dependencies for the reconciliation Engine
type EngineOptions struct {
	Store    SubscriptionStore
	Sender   notification.Sender
	Deduper  Deduper // optional; nil disables event-id dedupe
	Logger   *zap.Logger
	SiteName string
}

// Engine reconciles verified provider events against local subscription
// state. A non-nil error from Dispatch means an unexpected internal fault
// (storage unavailable); every expected condition - unknown event type,
// lookup miss, malformed payload, notification failure - is absorbed and
// acknowledged so the provider does not retry unprocessable events.
type Engine struct {
	EngineOptions
}

// NewEngine validates the options and returns an Engine
func NewEngine(option EngineOptions) (*Engine, error) {
	if option.Store == nil {
		return nil, fmt.Errorf("nil Store is invalid")
	}
	if option.Sender == nil {
		return nil, fmt.Errorf("nil Sender is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	if len(option.SiteName) == 0 {
		option.SiteName = "DirectFanz"
	}
	return &Engine{
		EngineOptions: option,
	}, nil
}

// Dispatch routes a verified event to its handler. Already-seen event IDs
// are skipped entirely, which makes every handler an idempotent consumer
// under the provider's at-least-once delivery. An event ID is recorded as
// seen only after its handler returns without an internal fault; a delivery
// that is surfaced to the provider as a failure must still be processable
// when the provider retries it.
func (e *Engine) Dispatch(ctx context.Context, event stripe.Event) error {
	logger := e.Logger.With(
		zap.String("EventID", event.ID),
		zap.String("EventType", event.Type),
	)

	dedupe := e.Deduper != nil && len(event.ID) > 0
	if dedupe {
		seen, err := e.Deduper.Seen(event.ID)
		if err != nil {
			// dedupe store being down should not block reconciliation
			logger.Warn("Unable to check event against dedupe store",
				zap.Error(err),
			)
			dedupe = false
		} else if seen {
			logger.Info("Skipping already processed event")
			return nil
		}
	}

	var err error
	switch event.Type {
	case EventCheckoutCompleted:
		err = e.handleCheckoutCompleted(ctx, logger, event)
	case EventInvoiceSucceeded:
		err = e.handleInvoiceSucceeded(ctx, logger, event)
	case EventInvoiceFailed:
		err = e.handleInvoiceFailed(ctx, logger, event)
	case EventSubscriptionUpdated:
		err = e.handleSubscriptionUpdated(ctx, logger, event)
	case EventSubscriptionDeleted:
		err = e.handleSubscriptionDeleted(ctx, logger, event)
	default:
		// unhandled event types are not an error condition
		logger.Debug("Ignoring unhandled event type")
	}
	if err != nil {
		return err
	}

	if dedupe {
		if err := e.Deduper.MarkSeen(event.ID); err != nil {
			logger.Warn("Unable to record event in dedupe store",
				zap.Error(err),
			)
		}
	}
	return nil
}

func (e *Engine) handleCheckoutCompleted(ctx context.Context, logger *zap.Logger, event stripe.Event) error {
	var sess checkoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		logger.Warn("Unable to decode checkout session payload",
			zap.Error(err),
		)
		return nil
	}
	logger = logger.With(zap.String("ExternalID", sess.Subscription))

	if len(sess.Subscription) == 0 {
		logger.Warn("Checkout session has no subscription ID, skipping")
		return nil
	}
	if err := validate.Struct(&sess.Metadata); err != nil {
		logger.Warn("Checkout session is missing required metadata, skipping",
			zap.Error(err),
		)
		return nil
	}
	amount, err := decimal.NewFromString(sess.Metadata.Amount)
	if err != nil {
		logger.Warn("Checkout session has malformed amount metadata, skipping",
			zap.Error(err),
		)
		return nil
	}

	sub, created, err := e.Store.CreateFromCheckout(ctx, subscription.CheckoutOptions{
		ExternalID: sess.Subscription,
		FanID:      sess.Metadata.FanID,
		ArtistID:   sess.Metadata.ArtistID,
		TierID:     sess.Metadata.TierID,
		Amount:     amount,
	})
	if err != nil {
		return err
	}
	if !created {
		logger.Info("Subscription already exists for checkout, skipping")
		return nil
	}

	logger.Info("Subscription created from checkout",
		zap.String("SubscriptionID", sub.ID),
	)

	e.notify(ctx, logger, notification.ComposeWelcome(notification.WelcomeOptions{
		To:         sub.Fan.Email,
		FanName:    sub.Fan.DisplayName,
		ArtistName: sub.Artist.DisplayName,
		TierName:   sub.Tier.Name,
		SiteName:   e.SiteName,
	}))

	return nil
}

func (e *Engine) handleInvoiceSucceeded(ctx context.Context, logger *zap.Logger, event stripe.Event) error {
	var inv invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		logger.Warn("Unable to decode invoice payload",
			zap.Error(err),
		)
		return nil
	}
	logger = logger.With(zap.String("ExternalID", inv.Subscription))

	sub, err := e.Store.ApplyPayment(ctx, subscription.PaymentOptions{
		ExternalID:      inv.Subscription,
		AmountPaidMinor: inv.AmountPaid,
		PeriodStart:     time.Unix(inv.PeriodStart, 0),
		PeriodEnd:       time.Unix(inv.PeriodEnd, 0),
	})
	if err != nil {
		return err
	}
	if sub == nil {
		logger.Info("No subscription tracked for invoice, skipping")
		return nil
	}

	logger.Info("Invoice payment applied",
		zap.String("SubscriptionID", sub.ID),
		zap.Int64("AmountPaid", inv.AmountPaid),
	)
	return nil
}

func (e *Engine) handleInvoiceFailed(ctx context.Context, logger *zap.Logger, event stripe.Event) error {
	var inv invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		logger.Warn("Unable to decode invoice payload",
			zap.Error(err),
		)
		return nil
	}
	logger = logger.With(zap.String("ExternalID", inv.Subscription))

	attempts := inv.AttemptCount
	if attempts < 1 {
		attempts = 1
	}
	var nextRetry *time.Time
	if inv.NextPaymentAttempt > 0 {
		t := time.Unix(inv.NextPaymentAttempt, 0)
		nextRetry = &t
	}
	reason := "Payment could not be processed"
	if inv.LastPaymentError != nil && len(inv.LastPaymentError.Message) > 0 {
		reason = inv.LastPaymentError.Message
	}

	sub, err := e.Store.RecordFailure(ctx, subscription.FailureOptions{
		ExternalID:     inv.Subscription,
		InvoiceID:      inv.ID,
		AmountDueMinor: inv.AmountDue,
		AttemptCount:   attempts,
		NextRetryAt:    nextRetry,
		Reason:         reason,
	})
	if err != nil {
		return err
	}
	if sub == nil {
		logger.Info("No subscription tracked for invoice, skipping")
		return nil
	}

	logger.Info("Payment failure recorded",
		zap.String("SubscriptionID", sub.ID),
		zap.Int64("AttemptCount", attempts),
	)

	e.notify(ctx, logger, notification.ComposePaymentFailed(notification.PaymentFailedOptions{
		To:           sub.Fan.Email,
		FanName:      sub.Fan.DisplayName,
		ArtistName:   sub.Artist.DisplayName,
		AmountDue:    subscription.MinorToMajor(inv.AmountDue),
		AttemptCount: attempts,
		NextRetryAt:  nextRetry,
		SiteName:     e.SiteName,
	}))

	return nil
}

func (e *Engine) handleSubscriptionUpdated(ctx context.Context, logger *zap.Logger, event stripe.Event) error {
	var provider providerSubscription
	if err := json.Unmarshal(event.Data.Raw, &provider); err != nil {
		logger.Warn("Unable to decode subscription payload",
			zap.Error(err),
		)
		return nil
	}
	logger = logger.With(zap.String("ExternalID", provider.ID))

	status, known := providerStatuses[provider.Status]
	if !known {
		logger.Warn("Provider reported unrecognized subscription status, skipping",
			zap.String("ProviderStatus", provider.Status),
		)
		return nil
	}

	sub, err := e.Store.SyncStatus(ctx, subscription.StatusOptions{
		ExternalID:  provider.ID,
		Status:      status,
		PeriodStart: time.Unix(provider.CurrentPeriodStart, 0),
		PeriodEnd:   time.Unix(provider.CurrentPeriodEnd, 0),
	})
	if err != nil {
		return err
	}
	if sub == nil {
		logger.Info("No subscription tracked for update, skipping")
		return nil
	}

	logger.Info("Subscription status synchronized",
		zap.String("SubscriptionID", sub.ID),
		zap.String("Status", string(status)),
	)
	return nil
}

func (e *Engine) handleSubscriptionDeleted(ctx context.Context, logger *zap.Logger, event stripe.Event) error {
	var provider providerSubscription
	if err := json.Unmarshal(event.Data.Raw, &provider); err != nil {
		logger.Warn("Unable to decode subscription payload",
			zap.Error(err),
		)
		return nil
	}
	logger = logger.With(zap.String("ExternalID", provider.ID))

	sub, err := e.Store.Cancel(ctx, provider.ID)
	if err != nil {
		return err
	}
	if sub == nil {
		logger.Info("No subscription tracked for deletion, skipping")
		return nil
	}

	logger.Info("Subscription canceled",
		zap.String("SubscriptionID", sub.ID),
	)
	return nil
}

// notify sends a notification without letting delivery failures affect the
// reconciliation outcome
func (e *Engine) notify(ctx context.Context, logger *zap.Logger, msg notification.Message) {
	if len(msg.To) == 0 {
		logger.Warn("Notification recipient unknown, skipping")
		return
	}
	if err := e.Sender.Send(ctx, msg); err != nil {
		logger.Error("Unable to send notification",
			zap.Error(err),
		)
	}
}

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shockvaluemedia/directfanz-billing/artist"
	"github.com/Shockvaluemedia/directfanz-billing/fan"
	"github.com/Shockvaluemedia/directfanz-billing/tier"

	"github.com/lithammer/shortuuid/v3"
	extErrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ManagerOptions contains the dependencies for the subscription Manager
type ManagerOptions struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// Manager owns every storage mutation performed by the reconciliation
// engine: subscription rows, payment failure records, and the denormalized
// tier/artist counters. Each operation runs as a single serializable
// transaction so concurrent events for the same subscription cannot lose
// counter updates.
type Manager struct {
	ManagerOptions
}

// NewManager returns a Manager after migrating the reconciliation models
func NewManager(option ManagerOptions) (*Manager, error) {
	if option.DB == nil {
		return nil, fmt.Errorf("nil DB is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	if err := option.DB.AutoMigrate(&fan.Fan{}, &artist.Artist{}, &tier.Tier{}, &Subscription{}, &PaymentFailure{}); err != nil {
		return nil, extErrors.Wrap(err, "Cannot initialize subscription.Manager")
	}
	return &Manager{
		ManagerOptions: option,
	}, nil
}

var serializable = &sql.TxOptions{
	Isolation: sql.LevelSerializable,
}

// lookupForUpdate finds a subscription by the provider's subscription ID
// within a transaction. Returns nil without error when no row matches.
func lookupForUpdate(tx *gorm.DB, externalID string, preload bool) (*Subscription, error) {
	var sub Subscription
	query := tx.Where("external_id = ?", externalID)
	if preload {
		query = query.Preload("Fan").Preload("Artist").Preload("Tier")
	}
	result := query.First(&sub)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &sub, nil
}

func adjustCounters(tx *gorm.DB, tierID, artistID string, delta int) error {
	result := tx.Model(&tier.Tier{}).
		Where("id = ?", tierID).
		UpdateColumn("subscriber_count", gorm.Expr("subscriber_count + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	result = tx.Model(&artist.Artist{}).
		Where("id = ?", artistID).
		UpdateColumn("total_subscribers", gorm.Expr("total_subscribers + ?", delta))
	return result.Error
}

// CheckoutOptions carries the metadata of a completed checkout session
type CheckoutOptions struct {
	ExternalID string
	FanID      string
	ArtistID   string
	TierID     string
	Amount     decimal.Decimal
}

// CreateFromCheckout creates the ACTIVE subscription row for a completed
// checkout, with a fixed 30-day initial period, and increments the tier and
// artist subscriber counters. Creation is deduplicated on the provider's
// subscription ID: a replayed checkout event returns the existing row with
// created == false and leaves the counters untouched.
func (m *Manager) CreateFromCheckout(ctx context.Context, opt CheckoutOptions) (*Subscription, bool, error) {
	var sub *Subscription
	var created bool
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lookupForUpdate(tx, opt.ExternalID, true)
		if err != nil {
			return err
		}
		if existing != nil {
			sub = existing
			return nil
		}
		now := time.Now()
		newSub := &Subscription{
			ID:                 shortuuid.New(),
			ExternalID:         opt.ExternalID,
			FanID:              opt.FanID,
			ArtistID:           opt.ArtistID,
			TierID:             opt.TierID,
			Amount:             opt.Amount,
			Status:             StatusActive,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   now.AddDate(0, 0, InitialPeriodDays),
		}
		if err := tx.Create(newSub).Error; err != nil {
			return err
		}
		if err := adjustCounters(tx, opt.TierID, opt.ArtistID, 1); err != nil {
			return err
		}
		sub = newSub
		created = true
		return nil
	}, serializable)
	if err != nil {
		m.Logger.Error("Database returned error",
			zap.Error(err),
		)
		return nil, false, extErrors.Wrap(err, "Cannot create subscription from checkout")
	}
	if created {
		// reload with display data for the welcome notification
		if full, err := m.GetByExternalID(ctx, opt.ExternalID); err == nil && full != nil {
			sub = full
		}
	}
	return sub, created, nil
}

// PaymentOptions carries the fields of a succeeded invoice
type PaymentOptions struct {
	ExternalID      string
	AmountPaidMinor int64
	PeriodStart     time.Time
	PeriodEnd       time.Time
}

// ApplyPayment marks the subscription ACTIVE, refreshes its billing period
// from the invoice, and credits the artist's earnings with the net-of-fee
// amount via an atomic column increment. Returns nil without error when the
// external ID is not tracked locally.
func (m *Manager) ApplyPayment(ctx context.Context, opt PaymentOptions) (*Subscription, error) {
	var sub *Subscription
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := lookupForUpdate(tx, opt.ExternalID, false)
		if err != nil {
			return err
		}
		if found == nil {
			return nil
		}
		updates := map[string]interface{}{
			"status":               StatusActive,
			"current_period_start": opt.PeriodStart,
			"current_period_end":   opt.PeriodEnd,
		}
		if err := tx.Model(&Subscription{}).Where("id = ?", found.ID).Updates(updates).Error; err != nil {
			return err
		}
		net := NetEarnings(opt.AmountPaidMinor)
		result := tx.Model(&artist.Artist{}).
			Where("id = ?", found.ArtistID).
			UpdateColumn("total_earnings", gorm.Expr("total_earnings + ?", net))
		if result.Error != nil {
			return result.Error
		}
		found.Status = StatusActive
		found.CurrentPeriodStart = opt.PeriodStart
		found.CurrentPeriodEnd = opt.PeriodEnd
		sub = found
		return nil
	}, serializable)
	if err != nil {
		m.Logger.Error("Database returned error",
			zap.Error(err),
		)
		return nil, extErrors.Wrap(err, "Cannot apply invoice payment")
	}
	return sub, nil
}

// FailureOptions carries the fields of a failed invoice
type FailureOptions struct {
	ExternalID     string
	InvoiceID      string
	AmountDueMinor int64
	AttemptCount   int64
	NextRetryAt    *time.Time
	Reason         string
}

// RecordFailure marks the subscription PAST_DUE and appends a PaymentFailure
// audit record. Returns the subscription preloaded with fan/artist/tier
// display data for the failure notification, or nil without error when the
// external ID is not tracked locally.
func (m *Manager) RecordFailure(ctx context.Context, opt FailureOptions) (*Subscription, error) {
	var sub *Subscription
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := lookupForUpdate(tx, opt.ExternalID, true)
		if err != nil {
			return err
		}
		if found == nil {
			return nil
		}
		if err := tx.Model(&Subscription{}).Where("id = ?", found.ID).Update("status", StatusPastDue).Error; err != nil {
			return err
		}
		failure := &PaymentFailure{
			ID:             shortuuid.New(),
			SubscriptionID: found.ID,
			InvoiceID:      opt.InvoiceID,
			Amount:         MinorToMajor(opt.AmountDueMinor),
			AttemptCount:   opt.AttemptCount,
			NextRetryAt:    opt.NextRetryAt,
			Reason:         opt.Reason,
		}
		if err := tx.Create(failure).Error; err != nil {
			return err
		}
		found.Status = StatusPastDue
		sub = found
		return nil
	}, serializable)
	if err != nil {
		m.Logger.Error("Database returned error",
			zap.Error(err),
		)
		return nil, extErrors.Wrap(err, "Cannot record payment failure")
	}
	return sub, nil
}

// StatusOptions carries the provider-reported state of a subscription
type StatusOptions struct {
	ExternalID  string
	Status      Status
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// SyncStatus stores the provider-reported status and billing period. The
// caller is responsible for having validated Status against the known enum.
// Returns nil without error when the external ID is not tracked locally.
func (m *Manager) SyncStatus(ctx context.Context, opt StatusOptions) (*Subscription, error) {
	var sub *Subscription
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := lookupForUpdate(tx, opt.ExternalID, false)
		if err != nil {
			return err
		}
		if found == nil {
			return nil
		}
		updates := map[string]interface{}{
			"status":               opt.Status,
			"current_period_start": opt.PeriodStart,
			"current_period_end":   opt.PeriodEnd,
		}
		if err := tx.Model(&Subscription{}).Where("id = ?", found.ID).Updates(updates).Error; err != nil {
			return err
		}
		found.Status = opt.Status
		found.CurrentPeriodStart = opt.PeriodStart
		found.CurrentPeriodEnd = opt.PeriodEnd
		sub = found
		return nil
	}, serializable)
	if err != nil {
		m.Logger.Error("Database returned error",
			zap.Error(err),
		)
		return nil, extErrors.Wrap(err, "Cannot synchronize subscription status")
	}
	return sub, nil
}

// Cancel marks the subscription CANCELED and decrements the tier and artist
// subscriber counters. A row that is already CANCELED is returned unchanged
// with no decrement, so replayed deletion events cannot drive the counters
// below their true value. Returns nil without error when the external ID is
// not tracked locally. The row is never physically deleted.
func (m *Manager) Cancel(ctx context.Context, externalID string) (*Subscription, error) {
	var sub *Subscription
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := lookupForUpdate(tx, externalID, false)
		if err != nil {
			return err
		}
		if found == nil {
			return nil
		}
		if found.Status == StatusCanceled {
			sub = found
			return nil
		}
		if err := tx.Model(&Subscription{}).Where("id = ?", found.ID).Update("status", StatusCanceled).Error; err != nil {
			return err
		}
		if err := adjustCounters(tx, found.TierID, found.ArtistID, -1); err != nil {
			return err
		}
		found.Status = StatusCanceled
		sub = found
		return nil
	}, serializable)
	if err != nil {
		m.Logger.Error("Database returned error",
			zap.Error(err),
		)
		return nil, extErrors.Wrap(err, "Cannot cancel subscription")
	}
	return sub, nil
}

// GetByExternalID returns the subscription with fan/artist/tier preloaded,
// or nil when no row matches the provider's subscription ID.
func (m *Manager) GetByExternalID(ctx context.Context, externalID string) (*Subscription, error) {
	var sub Subscription
	result := m.DB.WithContext(ctx).
		Preload("Fan").
		Preload("Artist").
		Preload("Tier").
		Where("external_id = ?", externalID).
		First(&sub)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		m.Logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, result.Error
	}
	return &sub, nil
}

// ListFailures returns the payment failure history of a subscription, most
// recent first.
func (m *Manager) ListFailures(ctx context.Context, subscriptionID string) ([]PaymentFailure, error) {
	failures := make([]PaymentFailure, 0, 1)
	result := m.DB.WithContext(ctx).
		Order("created_at desc").
		Where("subscription_id = ?", subscriptionID).
		Find(&failures)
	if result.Error != nil {
		m.Logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, result.Error
	}
	return failures, nil
}

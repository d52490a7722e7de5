package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"givehub/internal/cache"
	"givehub/internal/ledger"
	"givehub/internal/queue"
	"givehub/internal/transfer"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Invalidator is the slice of the cache layer the worker needs. The cache is
// strictly advisory; invalidation failures never fail a job.
type Invalidator interface {
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// DonationHandler consumes donation jobs from the donations queue.
type DonationHandler struct {
	store  ledger.Store
	engine *transfer.Engine
	cache  Invalidator
}

// NewDonationHandler creates the donation queue consumer.
func NewDonationHandler(store ledger.Store, engine *transfer.Engine, c Invalidator) *DonationHandler {
	return &DonationHandler{store: store, engine: engine, cache: c}
}

// ProcessTask re-validates the donation, runs the transfer engine's atomic
// unit and invalidates caches.
//
// Returning an error before the engine commits marks the job failed and the
// queue retries it per policy. Once the engine has committed, this handler
// must return nil: a committed transfer retried would double-debit the
// donor, so post-commit failures are logged and swallowed.
func (h *DonationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.DonationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// A malformed payload can never succeed; archive it immediately.
		return fmt.Errorf("unmarshal donation payload: %v: %w", err, asynq.SkipRetry)
	}

	log := logrus.WithFields(logrus.Fields{
		"donor_id":       payload.DonorID,
		"beneficiary_id": payload.DTO.BeneficiaryID,
		"amount":         payload.DTO.Amount.String(),
	})

	// Re-run the cheap pre-enqueue checks: balances and accounts may have
	// changed between enqueue and dequeue.
	donor, err := h.store.FindUserWithWallet(ctx, payload.DonorID)
	if err != nil {
		log.WithField("error", err.Error()).Warn("Donation job failed donor re-validation")
		return fmt.Errorf("donor: %w", err)
	}
	if donor.Wallet.Balance.LessThan(payload.DTO.Amount) {
		log.Warn("Donation job failed balance re-validation")
		return ledger.ErrInsufficientFunds
	}
	if _, err := h.store.FindUserWithWallet(ctx, payload.DTO.BeneficiaryID); err != nil {
		log.WithField("error", err.Error()).Warn("Donation job failed beneficiary re-validation")
		return fmt.Errorf("beneficiary: %w", err)
	}

	donation, err := h.engine.Transfer(ctx, payload.DonorID, payload.DTO.BeneficiaryID, payload.DTO.Amount)
	if err != nil {
		log.WithField("error", err.Error()).Error("Donation job transfer failed")
		return err
	}

	// The atomic unit is durably committed; the job now completes no matter
	// what happens below.
	h.invalidate(ctx, payload.DonorID, payload.DTO.BeneficiaryID)

	if w := t.ResultWriter(); w != nil {
		if result, err := json.Marshal(donation); err == nil {
			_, _ = w.Write(result)
		}
	}

	log.WithField("donation_id", donation.ID).Info("Donation job completed")
	return nil
}

// invalidate clears every cache entry keyed by the donor, the beneficiary, or
// their aggregate donation count. The cache is advisory, so failures here are
// logged and never fail the job.
func (h *DonationHandler) invalidate(ctx context.Context, donorID, beneficiaryID string) {
	targets := []struct {
		kind    string
		pattern bool
		key     string
	}{
		{"key", false, cache.WalletKey(donorID)},
		{"key", false, cache.WalletKey(beneficiaryID)},
		{"key", false, cache.DonationCountKey(donorID, beneficiaryID)},
		{"pattern", true, cache.DonationHistoryPattern(donorID)},
		{"pattern", true, cache.DonationHistoryPattern(beneficiaryID)},
		{"pattern", true, cache.TxHistoryPattern(donorID)},
		{"pattern", true, cache.TxHistoryPattern(beneficiaryID)},
	}
	for _, target := range targets {
		var err error
		if target.pattern {
			err = h.cache.DeleteByPattern(ctx, target.key)
		} else {
			err = h.cache.Delete(ctx, target.key)
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"target": target.key,
				"error":  err.Error(),
			}).Warn("Cache invalidation failed")
		}
	}
}

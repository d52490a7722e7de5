package transfer

import (
	"context"
	"fmt"
	"sort"

	"givehub/internal/config"
	"givehub/internal/domain"
	"givehub/internal/ledger"
	"givehub/internal/queue"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Engine executes peer-to-peer donation transfers. The balance mutation, the
// donation record and both ledger entries are written inside one atomic unit;
// nothing is observable until commit and nothing survives an abort.
type Engine struct {
	store ledger.Store
	queue queue.Enqueuer
	cfg   *config.Config
}

// NewEngine creates a transfer engine.
func NewEngine(store ledger.Store, enqueuer queue.Enqueuer, cfg *config.Config) *Engine {
	return &Engine{store: store, queue: enqueuer, cfg: cfg}
}

// Transfer moves amount from the donor's wallet to the beneficiary's wallet
// and returns the created donation.
//
// The caller is expected to have run the same cheap checks before enqueueing;
// they are repeated here because state may have changed in between, and the
// balance check is repeated once more on the locked row inside the atomic
// unit to close the remaining race window.
func (e *Engine) Transfer(ctx context.Context, donorID, beneficiaryID string, amount decimal.Decimal) (*domain.Donation, error) {
	if amount.LessThan(e.cfg.MinDonationAmount) || amount.GreaterThan(e.cfg.MaxDonationAmount) {
		return nil, fmt.Errorf("%w: %s not in [%s, %s]", ErrAmountOutOfRange,
			amount, e.cfg.MinDonationAmount, e.cfg.MaxDonationAmount)
	}
	if donorID == beneficiaryID {
		return nil, ErrSelfTransfer
	}

	donor, err := e.store.FindUserWithWallet(ctx, donorID)
	if err != nil {
		return nil, fmt.Errorf("donor: %w", err)
	}
	beneficiary, err := e.store.FindUserWithWallet(ctx, beneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("beneficiary: %w", err)
	}
	if donor.Wallet.Balance.LessThan(amount) {
		return nil, ledger.ErrInsufficientFunds
	}

	donation := &domain.Donation{
		ID:            uuid.NewString(),
		DonorID:       donorID,
		BeneficiaryID: beneficiaryID,
		Amount:        amount,
	}

	err = e.store.Atomically(ctx, func(tx ledger.Store) error {
		// Lock both wallet rows in id order so two opposing concurrent
		// transfers cannot deadlock on each other.
		walletIDs := []string{donor.Wallet.ID, beneficiary.Wallet.ID}
		sort.Strings(walletIDs)
		for _, id := range walletIDs {
			if _, err := tx.LockWallet(ctx, id); err != nil {
				return err
			}
		}

		if err := tx.DecrementBalance(ctx, donor.Wallet.ID, amount); err != nil {
			return err
		}
		if err := tx.IncrementBalance(ctx, beneficiary.Wallet.ID, amount); err != nil {
			return err
		}
		if err := tx.CreateDonation(ctx, donation); err != nil {
			return err
		}

		debit := &domain.Transaction{
			WalletID:   donor.Wallet.ID,
			Type:       domain.TransactionDebit,
			Amount:     amount,
			Reference:  DebitReference(donation.ID),
			Status:     domain.TransactionSuccess,
			DonationID: &donation.ID,
		}
		if err := tx.CreateTransaction(ctx, debit); err != nil {
			return err
		}
		credit := &domain.Transaction{
			WalletID:   beneficiary.Wallet.ID,
			Type:       domain.TransactionCredit,
			Amount:     amount,
			Reference:  CreditReference(donation.ID),
			Status:     domain.TransactionSuccess,
			DonationID: &donation.ID,
		}
		return tx.CreateTransaction(ctx, credit)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"donation_id":    donation.ID,
		"donor_id":       donorID,
		"beneficiary_id": beneficiaryID,
		"amount":         amount.String(),
	}).Info("Donation transfer committed")

	// Milestone notification is a post-commit side effect. It must eventually
	// happen but never reverses or blocks the transfer, so every failure on
	// this path is logged and swallowed.
	e.scheduleMilestone(ctx, donor, beneficiary)

	return donation, nil
}

// DebitReference is the ledger reference for the donor-side entry of a donation.
func DebitReference(donationID string) string {
	return "DON-" + donationID + "-DEBIT"
}

// CreditReference is the ledger reference for the beneficiary-side entry of a donation.
func CreditReference(donationID string) string {
	return "DON-" + donationID + "-CREDIT"
}

// scheduleMilestone recomputes the donor-to-beneficiary donation count and
// enqueues a thank-you notification when it hits a configured milestone.
func (e *Engine) scheduleMilestone(ctx context.Context, donor, beneficiary *domain.User) {
	count, err := e.store.CountDonations(ctx, donor.ID, beneficiary.ID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"donor_id":       donor.ID,
			"beneficiary_id": beneficiary.ID,
			"error":          err.Error(),
		}).Error("Failed to recompute donation count")
		return
	}
	if !e.isMilestone(count) {
		return
	}
	payload := queue.ThankYouPayload{
		DonorEmail:      donor.Email,
		BeneficiaryName: beneficiary.DisplayName(),
		DonorName:       donor.DisplayName(),
		DonationCount:   count,
		DonorID:         donor.ID,
		BeneficiaryID:   beneficiary.ID,
	}
	if err := e.queue.EnqueueThankYou(ctx, payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"donor_id":       donor.ID,
			"beneficiary_id": beneficiary.ID,
			"count":          count,
			"error":          err.Error(),
		}).Error("Failed to enqueue thank-you notification")
		return
	}
	logrus.WithFields(logrus.Fields{
		"donor_id":       donor.ID,
		"beneficiary_id": beneficiary.ID,
		"count":          count,
	}).Info("Milestone notification scheduled")
}

func (e *Engine) isMilestone(count int64) bool {
	for _, m := range e.cfg.Milestones {
		if count == m {
			return true
		}
	}
	return false
}

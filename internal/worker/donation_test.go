package worker

import (
	"context"
	"encoding/json"
	"testing"

	"givehub/internal/cache"
	"givehub/internal/config"
	"givehub/internal/ledger"
	"givehub/internal/ledger/ledgertest"
	"givehub/internal/queue"
	"givehub/internal/transfer"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingInvalidator records every invalidation target.
type recordingInvalidator struct {
	keys     []string
	patterns []string
	err      error
}

func (r *recordingInvalidator) Delete(ctx context.Context, key string) error {
	r.keys = append(r.keys, key)
	return r.err
}

func (r *recordingInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return r.err
}

type noopEnqueuer struct{}

func (noopEnqueuer) EnqueueDonation(ctx context.Context, payload queue.DonationPayload) (string, error) {
	return "job-1", nil
}

func (noopEnqueuer) EnqueueThankYou(ctx context.Context, payload queue.ThankYouPayload) error {
	return nil
}

func workerConfig() *config.Config {
	return &config.Config{
		MinDonationAmount: decimal.NewFromInt(100),
		MaxDonationAmount: decimal.NewFromInt(1000000),
		Milestones:        []int64{2, 5, 10, 25, 50, 100},
	}
}

func donationTask(t *testing.T, payload queue.DonationPayload) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeDonationProcess, body)
}

func TestDonationProcessTask(t *testing.T) {
	ctx := context.Background()

	newHandler := func(store *ledgertest.FakeStore) (*DonationHandler, *recordingInvalidator) {
		inv := &recordingInvalidator{}
		engine := transfer.NewEngine(store, noopEnqueuer{}, workerConfig())
		return NewDonationHandler(store, engine, inv), inv
	}

	t.Run("Success", func(t *testing.T) {
		store := ledgertest.New()
		donor := store.AddUserWithWallet("donor", "donor@example.com", "Dana", "Donor", decimal.NewFromInt(10000))
		beneficiary := store.AddUserWithWallet("ben", "ben@example.com", "Ben", "Best", decimal.NewFromInt(0))
		handler, inv := newHandler(store)

		task := donationTask(t, queue.DonationPayload{
			DonorID: donor.ID,
			DTO:     queue.DonationRequest{BeneficiaryID: beneficiary.ID, Amount: decimal.NewFromInt(1000)},
		})
		require.NoError(t, handler.ProcessTask(ctx, task))

		assert.True(t, store.WalletOf(donor.ID).Balance.Equal(decimal.NewFromInt(9000)))
		assert.True(t, store.WalletOf(beneficiary.ID).Balance.Equal(decimal.NewFromInt(1000)))
		require.Len(t, store.Donations, 1)

		assert.Contains(t, inv.keys, cache.WalletKey(donor.ID))
		assert.Contains(t, inv.keys, cache.WalletKey(beneficiary.ID))
		assert.Contains(t, inv.keys, cache.DonationCountKey(donor.ID, beneficiary.ID))
		assert.Contains(t, inv.patterns, cache.DonationHistoryPattern(donor.ID))
		assert.Contains(t, inv.patterns, cache.TxHistoryPattern(beneficiary.ID))
	})

	t.Run("Insufficient Funds At Dequeue", func(t *testing.T) {
		store := ledgertest.New()
		donor := store.AddUserWithWallet("donor", "donor@example.com", "Dana", "Donor", decimal.NewFromInt(500))
		beneficiary := store.AddUserWithWallet("ben", "ben@example.com", "Ben", "Best", decimal.NewFromInt(0))
		handler, inv := newHandler(store)

		task := donationTask(t, queue.DonationPayload{
			DonorID: donor.ID,
			DTO:     queue.DonationRequest{BeneficiaryID: beneficiary.ID, Amount: decimal.NewFromInt(1000)},
		})
		err := handler.ProcessTask(ctx, task)
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
		assert.Empty(t, store.Donations)
		assert.Empty(t, inv.keys)
	})

	t.Run("Missing Beneficiary", func(t *testing.T) {
		store := ledgertest.New()
		donor := store.AddUserWithWallet("donor", "donor@example.com", "Dana", "Donor", decimal.NewFromInt(10000))
		handler, _ := newHandler(store)

		task := donationTask(t, queue.DonationPayload{
			DonorID: donor.ID,
			DTO:     queue.DonationRequest{BeneficiaryID: "missing", Amount: decimal.NewFromInt(1000)},
		})
		err := handler.ProcessTask(ctx, task)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
		assert.True(t, store.WalletOf(donor.ID).Balance.Equal(decimal.NewFromInt(10000)))
	})

	t.Run("Malformed Payload Skips Retry", func(t *testing.T) {
		store := ledgertest.New()
		handler, _ := newHandler(store)

		task := asynq.NewTask(queue.TypeDonationProcess, []byte("{not json"))
		err := handler.ProcessTask(ctx, task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("Invalidation Failure Does Not Fail The Job", func(t *testing.T) {
		store := ledgertest.New()
		donor := store.AddUserWithWallet("donor", "donor@example.com", "Dana", "Donor", decimal.NewFromInt(10000))
		beneficiary := store.AddUserWithWallet("ben", "ben@example.com", "Ben", "Best", decimal.NewFromInt(0))
		inv := &recordingInvalidator{err: context.DeadlineExceeded}
		engine := transfer.NewEngine(store, noopEnqueuer{}, workerConfig())
		handler := NewDonationHandler(store, engine, inv)

		task := donationTask(t, queue.DonationPayload{
			DonorID: donor.ID,
			DTO:     queue.DonationRequest{BeneficiaryID: beneficiary.ID, Amount: decimal.NewFromInt(1000)},
		})
		require.NoError(t, handler.ProcessTask(ctx, task))
		require.Len(t, store.Donations, 1)
	})
}

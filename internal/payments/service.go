package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"givehub/internal/domain"
	"givehub/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrInvalidSignature is returned when the webhook signature does not match
// the HMAC of the raw request body.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// EventChargeSuccess is the only gateway event that mutates a wallet.
const EventChargeSuccess = "charge.success"

// Recognized events that are acknowledged without wallet mutation.
var acknowledgedEvents = map[string]struct{}{
	"charge.failed":          {},
	"transfer.success":       {},
	"transfer.failed":        {},
	"transfer.reversed":      {},
	"refund.processed":       {},
	"paymentrequest.success": {},
}

// Gateway abstracts the Paystack call used by funding initiation.
type Gateway interface {
	InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference string) (string, error)
}

// Service implements wallet funding and webhook reconciliation.
type Service struct {
	store   ledger.Store
	gateway Gateway
	secret  string
}

// NewService creates a payments service. secret is the gateway secret used as
// the webhook HMAC key.
func NewService(store ledger.Store, gateway Gateway, secret string) *Service {
	return &Service{store: store, gateway: gateway, secret: secret}
}

// event is the subset of the gateway webhook body the reconciliation needs.
type event struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"` // minor units
		Status    string `json:"status"`
	} `json:"data"`
}

// InitiateFunding starts a gateway-funded wallet top-up. A PENDING credit
// transaction is created under a fresh reference before the gateway call so
// the webhook has a row to find. The two steps are deliberately not atomic:
// if the gateway call fails the pending row simply never succeeds, and a
// webhook for an unknown reference is acknowledged as a no-op.
func (s *Service) InitiateFunding(ctx context.Context, userID string, amount decimal.Decimal) (authorizationURL, reference string, err error) {
	user, err := s.store.FindUserWithWallet(ctx, userID)
	if err != nil {
		return "", "", err
	}

	reference = "FUND-" + uuid.NewString()
	pending := &domain.Transaction{
		WalletID:  user.Wallet.ID,
		Type:      domain.TransactionCredit,
		Amount:    amount,
		Reference: reference,
		Status:    domain.TransactionPending,
	}
	if err := s.store.CreateTransaction(ctx, pending); err != nil {
		return "", "", err
	}

	amountMinor := amount.Mul(decimal.NewFromInt(100)).IntPart()
	authorizationURL, err = s.gateway.InitializeTransaction(ctx, user.Email, amountMinor, reference)
	if err != nil {
		return "", "", fmt.Errorf("initiate funding: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"reference": reference,
		"amount":    amount.String(),
	}).Info("Wallet funding initiated")
	return authorizationURL, reference, nil
}

// VerifySignature checks the hex HMAC-SHA512 of the exact raw body bytes
// against the provided signature header.
func (s *Service) VerifySignature(rawBody []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(s.secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HandleWebhookEvent verifies and dispatches one gateway webhook delivery.
//
// It returns ErrInvalidSignature on an authentication failure; every other
// outcome is acknowledged so the gateway does not retry events we have
// intentionally ignored. Internal crediting failures are logged for
// out-of-band alerting, never surfaced to the gateway.
func (s *Service) HandleWebhookEvent(ctx context.Context, rawBody []byte, signature string) error {
	if !s.VerifySignature(rawBody, signature) {
		return ErrInvalidSignature
	}

	var ev event
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		logrus.WithField("error", err.Error()).Error("Webhook body is not valid JSON")
		return nil
	}

	switch {
	case ev.Event == EventChargeSuccess:
		s.reconcileCharge(ctx, ev)
	default:
		if _, ok := acknowledgedEvents[ev.Event]; ok {
			logrus.WithField("event", ev.Event).Info("Ignoring recognized gateway event")
		} else {
			logrus.WithField("event", ev.Event).Info("Ignoring unrecognized gateway event")
		}
	}
	return nil
}

// reconcileCharge credits the wallet behind a successful charge exactly once.
func (s *Service) reconcileCharge(ctx context.Context, ev event) {
	// The gateway reports amounts in its minor unit.
	amount := decimal.NewFromInt(ev.Data.Amount).Div(decimal.NewFromInt(100))

	tx, err := s.store.FindTransactionByReference(ctx, ev.Data.Reference)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			// Out-of-band or foreign event, not a failure.
			logrus.WithField("reference", ev.Data.Reference).
				Info("Webhook references no local transaction, acknowledging")
			return
		}
		logrus.WithFields(logrus.Fields{
			"reference": ev.Data.Reference,
			"error":     err.Error(),
		}).Error("Webhook transaction lookup failed")
		return
	}

	if tx.Status == domain.TransactionSuccess {
		// Idempotency guard: the gateway may deliver the same event more
		// than once; the second delivery must be a no-op.
		logrus.WithField("reference", ev.Data.Reference).
			Warn("Webhook replay for already-settled transaction, skipping credit")
		return
	}

	err = s.store.Atomically(ctx, func(atomic ledger.Store) error {
		if err := atomic.MarkTransactionSuccess(ctx, tx.ID); err != nil {
			return err
		}
		return atomic.IncrementBalance(ctx, tx.WalletID, amount)
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"reference": ev.Data.Reference,
			"wallet_id": tx.WalletID,
			"error":     err.Error(),
		}).Error("Webhook wallet credit failed")
		return
	}

	logrus.WithFields(logrus.Fields{
		"reference": ev.Data.Reference,
		"wallet_id": tx.WalletID,
		"amount":    amount.String(),
	}).Info("Wallet credited from gateway charge")
}

package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"givehub/internal/domain"
	"givehub/internal/ledger/ledgertest"
	"givehub/internal/payments"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "sk_test_webhook"

func webhookSign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackWebhookHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newFixture := func(t *testing.T) (*gin.Engine, *ledgertest.FakeStore) {
		t.Helper()
		store := ledgertest.New()
		user := store.AddUserWithWallet("u1", "u1@example.com", "Uma", "One", decimal.NewFromInt(0))
		store.Transactions = append(store.Transactions, &domain.Transaction{
			ID:        "tx-1",
			WalletID:  store.WalletOf(user.ID).ID,
			Type:      domain.TransactionCredit,
			Amount:    decimal.NewFromInt(2500),
			Reference: "FUND-abc",
			Status:    domain.TransactionPending,
		})
		svc := payments.NewService(store, nil, webhookSecret)
		r := gin.New()
		r.POST("/webhooks/paystack", PaystackWebhookHandler(svc))
		return r, store
	}

	deliver := func(router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(SignatureHeader, signature)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	body := []byte(fmt.Sprintf(
		`{"event":"charge.success","data":{"reference":"FUND-abc","amount":%d,"status":"success"}}`,
		250000,
	))

	t.Run("Valid Signature Credits Wallet", func(t *testing.T) {
		router, store := newFixture(t)

		w := deliver(router, body, webhookSign(body))
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, store.WalletOf("u1").Balance.Equal(decimal.NewFromInt(2500)))
		assert.Equal(t, domain.TransactionSuccess, store.Transactions[0].Status)
	})

	t.Run("Invalid Signature Rejected", func(t *testing.T) {
		router, store := newFixture(t)

		w := deliver(router, body, "bogus")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.True(t, store.WalletOf("u1").Balance.IsZero())
	})

	t.Run("Missing Signature Rejected", func(t *testing.T) {
		router, store := newFixture(t)

		w := deliver(router, body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.True(t, store.WalletOf("u1").Balance.IsZero())
	})

	t.Run("Replay Credits Once", func(t *testing.T) {
		router, store := newFixture(t)

		require.Equal(t, http.StatusOK, deliver(router, body, webhookSign(body)).Code)
		require.Equal(t, http.StatusOK, deliver(router, body, webhookSign(body)).Code)
		assert.True(t, store.WalletOf("u1").Balance.Equal(decimal.NewFromInt(2500)))
	})
}

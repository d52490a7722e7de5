package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"givehub/internal/config"
	"givehub/internal/domain"
	"givehub/internal/ledger/ledgertest"
	"givehub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func authConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(store *ledgertest.FakeStore) *gin.Engine {
		r := gin.New()
		r.POST("/auth/register", RegisterHandler(store))
		return r
	}

	validBody := func() gin.H {
		return gin.H{
			"email":      "Dana@Example.com",
			"first_name": "Dana",
			"last_name":  "Donor",
			"password":   "hunter2hunter2",
			"pin":        "1234",
		}
	}

	t.Run("Creates User With Wallet", func(t *testing.T) {
		store := ledgertest.New()
		w := postJSON(newRouter(store), "/auth/register", validBody())
		require.Equal(t, http.StatusCreated, w.Code)

		user, err := store.FindUserByEmail(context.Background(), "dana@example.com")
		require.NoError(t, err)
		wallet := store.WalletOf(user.ID)
		require.NotNil(t, wallet, "registration must create the wallet too")
		assert.True(t, wallet.Balance.IsZero())
		// Secrets are stored hashed, never verbatim.
		assert.NotEqual(t, "hunter2hunter2", user.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Pin), []byte("1234")))
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		store := ledgertest.New()
		router := newRouter(store)
		require.Equal(t, http.StatusCreated, postJSON(router, "/auth/register", validBody()).Code)
		assert.Equal(t, http.StatusConflict, postJSON(router, "/auth/register", validBody()).Code)
	})

	t.Run("Short Password", func(t *testing.T) {
		body := validBody()
		body["password"] = "short"
		w := postJSON(newRouter(ledgertest.New()), "/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Bad Pin", func(t *testing.T) {
		for _, pin := range []string{"12", "1234567", "abcd"} {
			body := validBody()
			body["pin"] = pin
			w := postJSON(newRouter(ledgertest.New()), "/auth/register", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, "pin %q", pin)
		}
	})
}

func TestLoginAndRefresh(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := authConfig()

	newFixture := func(t *testing.T) (*gin.Engine, *ledgertest.FakeStore) {
		t.Helper()
		store := ledgertest.New()
		user := store.AddUserWithWallet("u1", "dana@example.com", "Dana", "Donor", decimal.Zero)
		hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.DefaultCost)
		require.NoError(t, err)
		user.Password = string(hash)

		r := gin.New()
		r.POST("/auth/login", LoginHandler(store, cfg))
		r.POST("/auth/refresh", RefreshHandler(store, cfg))
		return r, store
	}

	login := func(router *gin.Engine, email, password string) *httptest.ResponseRecorder {
		return postJSON(router, "/auth/login", gin.H{"email": email, "password": password})
	}

	t.Run("Login Issues Token Pair", func(t *testing.T) {
		router, _ := newFixture(t)
		w := login(router, "dana@example.com", "hunter2hunter2")
		require.Equal(t, http.StatusOK, w.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.AccessToken)
		require.NotEmpty(t, resp.RefreshToken)

		claims, err := utils.ParseJWT(resp.AccessToken, cfg.JWTSecret)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		router, _ := newFixture(t)
		assert.Equal(t, http.StatusUnauthorized, login(router, "dana@example.com", "wrong-password").Code)
	})

	t.Run("Unknown Email", func(t *testing.T) {
		router, _ := newFixture(t)
		assert.Equal(t, http.StatusUnauthorized, login(router, "nobody@example.com", "hunter2hunter2").Code)
	})

	t.Run("Refresh Rotates Token", func(t *testing.T) {
		router, store := newFixture(t)
		w := login(router, "dana@example.com", "hunter2hunter2")
		require.Equal(t, http.StatusOK, w.Code)
		var first AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

		w = postJSON(router, "/auth/refresh", gin.H{"refresh_token": first.RefreshToken})
		require.Equal(t, http.StatusOK, w.Code)
		var second AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

		// The presented token is revoked; replaying it must fail.
		w = postJSON(router, "/auth/refresh", gin.H{"refresh_token": first.RefreshToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		stored, err := store.FindRefreshToken(context.Background(), first.RefreshToken)
		require.NoError(t, err)
		assert.True(t, stored.Revoked)
	})

	t.Run("Expired Refresh Token", func(t *testing.T) {
		router, store := newFixture(t)
		require.NoError(t, store.SaveRefreshToken(context.Background(), &domain.RefreshToken{
			UserID:    "u1",
			Token:     "stale-token",
			ExpiresAt: time.Now().Add(-time.Hour),
		}))

		w := postJSON(router, "/auth/refresh", gin.H{"refresh_token": "stale-token"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

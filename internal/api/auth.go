package api

import (
	"errors"
	"net/http" // HTTP status codes
	"regexp"   // Regular expressions
	"strings"  // String manipulation
	"time"

	"givehub/internal/config"
	"givehub/internal/domain" // Importing domain models
	"givehub/internal/ledger"
	"givehub/internal/utils" // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Pin       string `json:"pin" binding:"required"` // Transaction PIN, 4-6 digits
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries an opaque refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse carries a fresh token pair.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

var pinPattern = regexp.MustCompile(`^\d{4,6}$`)

// isValidPassword checks if the password length is between 8 and 72 characters
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 72
}

// RegisterHandler creates a user together with their zero-balance wallet.
// Both rows are written in one atomic unit so a user can never exist without
// a wallet.
func RegisterHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-72 characters"})
			return
		}
		if !pinPattern.MatchString(req.Pin) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be 4-6 digits"})
			return
		}
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		pinHash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash PIN"})
			return
		}
		user := domain.User{
			Email:     strings.ToLower(req.Email),
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Password:  string(passwordHash),
			Pin:       string(pinHash),
			Wallet:    domain.Wallet{}, // Created alongside the user, balance zero
		}
		err = store.Atomically(c.Request.Context(), func(tx ledger.Store) error {
			return tx.CreateUser(c.Request.Context(), &user)
		})
		if err != nil {
			if errors.Is(err, ledger.ErrAlreadyExists) {
				c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user_id": user.ID})
	}
}

// LoginHandler authenticates a user and returns an access/refresh token pair.
func LoginHandler(store ledger.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := store.FindUserByEmail(c.Request.Context(), strings.ToLower(req.Email))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		tokens, err := issueTokens(c, store, user.ID, cfg)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
			return
		}
		c.JSON(http.StatusOK, tokens)
	}
}

// RefreshHandler rotates a refresh token and returns a new token pair.
func RefreshHandler(store ledger.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		stored, err := store.FindRefreshToken(c.Request.Context(), req.RefreshToken)
		if err != nil || stored.Revoked || stored.ExpiresAt.Before(time.Now()) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}
		// Rotation: the presented token is revoked and replaced.
		if err := store.RevokeRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rotate token"})
			return
		}
		tokens, err := issueTokens(c, store, stored.UserID, cfg)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
			return
		}
		c.JSON(http.StatusOK, tokens)
	}
}

// issueTokens mints an access token and persists a fresh refresh token.
func issueTokens(c *gin.Context, store ledger.Store, userID string, cfg *config.Config) (*AuthResponse, error) {
	access, err := utils.GenerateJWT(userID, cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	err = store.SaveRefreshToken(c.Request.Context(), &domain.RefreshToken{
		UserID:    userID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(cfg.RefreshTokenTTL),
	})
	if err != nil {
		return nil, err
	}
	return &AuthResponse{AccessToken: access, RefreshToken: refresh}, nil
}

package api

import (
	"errors"
	"net/http"

	"givehub/internal/domain"
	"givehub/internal/ledger"

	"github.com/gin-gonic/gin"
)

// BeneficiaryRequest is the payload for creating or renaming a saved beneficiary.
type BeneficiaryRequest struct {
	RecipientID string  `json:"recipient_id" binding:"required"`
	Nickname    *string `json:"nickname,omitempty"`
}

// CreateBeneficiaryHandler saves a donor-to-recipient relationship.
func CreateBeneficiaryHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req BeneficiaryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.RecipientID == userID.(string) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot add yourself as a beneficiary"})
			return
		}
		if _, err := store.FindUserWithWallet(c.Request.Context(), req.RecipientID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipient not found"})
			return
		}
		b := domain.Beneficiary{
			UserID:      userID.(string),
			RecipientID: req.RecipientID,
			Nickname:    req.Nickname,
		}
		if err := store.CreateBeneficiary(c.Request.Context(), &b); err != nil {
			if errors.Is(err, ledger.ErrAlreadyExists) {
				c.JSON(http.StatusConflict, gin.H{"error": "Nickname already in use"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save beneficiary"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"beneficiary": b})
	}
}

// ListBeneficiariesHandler returns the authenticated user's saved beneficiaries.
func ListBeneficiariesHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		bs, err := store.ListBeneficiaries(c.Request.Context(), userID.(string))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch beneficiaries"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"beneficiaries": bs})
	}
}

// UpdateBeneficiaryHandler renames a saved beneficiary.
func UpdateBeneficiaryHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req struct {
			Nickname *string `json:"nickname"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		b, err := store.FindBeneficiaryByID(c.Request.Context(), userID.(string), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Beneficiary not found"})
			return
		}
		b.Nickname = req.Nickname
		if err := store.UpdateBeneficiary(c.Request.Context(), b); err != nil {
			if errors.Is(err, ledger.ErrAlreadyExists) {
				c.JSON(http.StatusConflict, gin.H{"error": "Nickname already in use"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update beneficiary"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"beneficiary": b})
	}
}

// DeleteBeneficiaryHandler removes a saved beneficiary.
func DeleteBeneficiaryHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err := store.DeleteBeneficiary(c.Request.Context(), userID.(string), c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Beneficiary not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Beneficiary removed"})
	}
}

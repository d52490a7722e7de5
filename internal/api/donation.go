package api

import (
	"errors"
	"net/http"
	"strconv"

	"givehub/internal/cache"
	"givehub/internal/config"
	"givehub/internal/ledger"
	"givehub/internal/queue"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// DonationRequest is the client payload for creating a donation.
type DonationRequest struct {
	BeneficiaryID string          `json:"beneficiary_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Pin           string          `json:"pin" binding:"required"` // Transaction PIN, re-checked here
}

// CreateDonationHandler runs the cheap pre-validation, enqueues a donation
// job and immediately returns 202. The atomic transfer itself happens in the
// donation worker; the client polls GET /donations/:id for the outcome.
func CreateDonationHandler(store ledger.Store, enqueuer queue.Enqueuer, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		donorID := userID.(string)

		var req DonationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.Amount.LessThan(cfg.MinDonationAmount) || req.Amount.GreaterThan(cfg.MaxDonationAmount) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Amount must be between " + cfg.MinDonationAmount.String() + " and " + cfg.MaxDonationAmount.String(),
			})
			return
		}
		if req.BeneficiaryID == donorID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot donate to yourself"})
			return
		}

		donor, err := store.FindUserWithWallet(c.Request.Context(), donorID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Donor wallet not found"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(donor.Pin), []byte(req.Pin)); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Incorrect PIN"})
			return
		}
		// Cheap pre-checks only; the worker re-validates and the engine
		// decides on the locked row.
		if donor.Wallet.Balance.LessThan(req.Amount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
			return
		}
		if _, err := store.FindUserWithWallet(c.Request.Context(), req.BeneficiaryID); err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Beneficiary not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate beneficiary"})
			return
		}

		jobID, err := enqueuer.EnqueueDonation(c.Request.Context(), queue.DonationPayload{
			DonorID: donorID,
			DTO: queue.DonationRequest{
				BeneficiaryID: req.BeneficiaryID,
				Amount:        req.Amount,
			},
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"donor_id":       donorID,
				"beneficiary_id": req.BeneficiaryID,
				"error":          err.Error(),
			}).Error("Failed to enqueue donation")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept donation"})
			return
		}

		logrus.WithFields(logrus.Fields{
			"donor_id":       donorID,
			"beneficiary_id": req.BeneficiaryID,
			"amount":         req.Amount.String(),
			"job_id":         jobID,
		}).Info("Donation accepted for processing")
		c.JSON(http.StatusAccepted, gin.H{"message": "Donation accepted", "job_id": jobID})
	}
}

// GetDonationHandler returns one donation. Only its donor or beneficiary may
// see it; anyone else gets a 404 rather than a hint that it exists.
func GetDonationHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		donation, err := store.FindDonationByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found"})
			return
		}
		if donation.DonorID != userID.(string) && donation.BeneficiaryID != userID.(string) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"donation": donation})
	}
}

// ListDonationsHandler returns the authenticated user's donations, paginated
// and served through the cache.
func ListDonationsHandler(store ledger.Store, cch *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		donorID := userID.(string)
		page, pageSize := pagination(c)

		cacheKey := cache.DonationHistoryKey(donorID, page, pageSize)
		var cached gin.H
		if found, err := cch.Get(c.Request.Context(), cacheKey, &cached); err == nil && found {
			cached["cached"] = true
			c.JSON(http.StatusOK, cached)
			return
		}

		donations, total, err := store.ListDonationsByDonor(c.Request.Context(), donorID, (page-1)*pageSize, pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch donations"})
			return
		}
		resp := gin.H{
			"donations":   donations,
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": (int(total) + pageSize - 1) / pageSize,
			"cached":      false,
		}
		_ = cch.Set(c.Request.Context(), cacheKey, resp)
		c.JSON(http.StatusOK, resp)
	}
}

// pagination reads page/page_size query params with the defaults shared by
// every list endpoint.
func pagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}

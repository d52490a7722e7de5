package api

import (
	"net/http"

	"givehub/internal/cache"
	"givehub/internal/domain"
	"givehub/internal/ledger"
	"givehub/internal/payments"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// FundRequest is the client payload for initiating a gateway-funded top-up.
type FundRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// GetWalletHandler returns wallet info for the authenticated user through the
// read-through cache.
func GetWalletHandler(store ledger.Store, cch *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		cacheKey := cache.WalletKey(userID.(string))
		var wallet domain.Wallet
		if found, err := cch.Get(c.Request.Context(), cacheKey, &wallet); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"wallet": wallet, "cached": true})
			return
		}
		w, err := store.FindWalletByUserID(c.Request.Context(), userID.(string))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		_ = cch.Set(c.Request.Context(), cacheKey, w)
		c.JSON(http.StatusOK, gin.H{"wallet": w, "cached": false})
	}
}

// GetTransactionHistoryHandler returns the ledger entries of the
// authenticated user's wallet, paginated and cached.
func GetTransactionHistoryHandler(store ledger.Store, cch *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		wallet, err := store.FindWalletByUserID(c.Request.Context(), userID.(string))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		page, pageSize := pagination(c)

		cacheKey := cache.TxHistoryKey(userID.(string), page, pageSize)
		var cached gin.H
		if found, err := cch.Get(c.Request.Context(), cacheKey, &cached); err == nil && found {
			cached["cached"] = true
			c.JSON(http.StatusOK, cached)
			return
		}

		txs, total, err := store.ListTransactionsByWallet(c.Request.Context(), wallet.ID, (page-1)*pageSize, pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		resp := gin.H{
			"transactions": txs,
			"page":         page,
			"page_size":    pageSize,
			"total":        total,
			"total_pages":  (int(total) + pageSize - 1) / pageSize,
			"cached":       false,
		}
		_ = cch.Set(c.Request.Context(), cacheKey, resp)
		c.JSON(http.StatusOK, resp)
	}
}

// FundWalletHandler initiates a gateway charge and returns the authorization
// URL the client completes payment on. The wallet is credited later, by the
// webhook, never here.
func FundWalletHandler(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req FundRequest
		if err := c.ShouldBindJSON(&req); err != nil || !req.Amount.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		authURL, reference, err := svc.InitiateFunding(c.Request.Context(), userID.(string), req.Amount)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"amount":  req.Amount.String(),
				"error":   err.Error(),
			}).Error("Funding initiation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initiate funding"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"authorization_url": authURL, "reference": reference})
	}
}

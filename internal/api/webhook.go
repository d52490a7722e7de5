package api

import (
	"errors"
	"io"
	"net/http"

	"givehub/internal/payments"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SignatureHeader carries the gateway's hex HMAC-SHA512 of the raw body.
const SignatureHeader = "x-paystack-signature"

// PaystackWebhookHandler receives gateway events. The body must stay
// unparsed until the signature over the exact raw bytes has been verified.
// Every outcome after a valid signature is acknowledged with 200 so the
// gateway never retries events we intentionally ignore.
func PaystackWebhookHandler(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawBody, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable body"})
			return
		}
		err = svc.HandleWebhookEvent(c.Request.Context(), rawBody, c.GetHeader(SignatureHeader))
		if err != nil {
			if errors.Is(err, payments.ErrInvalidSignature) {
				logrus.Warn("Webhook rejected: signature mismatch")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
				return
			}
			// HandleWebhookEvent only errors on signature failure; anything
			// else would be a programming error, still acknowledged.
			logrus.WithField("error", err.Error()).Error("Unexpected webhook error")
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

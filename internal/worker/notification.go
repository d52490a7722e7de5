package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"givehub/internal/notify"
	"givehub/internal/queue"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// NotificationHandler consumes thank-you jobs from the notifications queue.
// It runs in its own failure domain: nothing it does can reach back into a
// donation job.
type NotificationHandler struct {
	mailer notify.Mailer
}

// NewNotificationHandler creates the notification queue consumer.
func NewNotificationHandler(mailer notify.Mailer) *NotificationHandler {
	return &NotificationHandler{mailer: mailer}
}

// ProcessTask renders and sends one milestone thank-you mail.
func (h *NotificationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ThankYouPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal thank-you payload: %v: %w", err, asynq.SkipRetry)
	}

	subject := fmt.Sprintf("Thank you for supporting %s!", payload.BeneficiaryName)
	body := fmt.Sprintf(
		"Hi %s,\n\nYou've now made %d donations to %s. Thank you for your continued generosity!\n\nThe GiveHub Team",
		payload.DonorName, payload.DonationCount, payload.BeneficiaryName,
	)

	if err := h.mailer.Send(payload.DonorEmail, subject, body); err != nil {
		logrus.WithFields(logrus.Fields{
			"donor_id": payload.DonorID,
			"count":    payload.DonationCount,
			"error":    err.Error(),
		}).Error("Thank-you mail send failed")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"donor_id":       payload.DonorID,
		"beneficiary_id": payload.BeneficiaryID,
		"count":          payload.DonationCount,
	}).Info("Thank-you mail sent")
	return nil
}

// NewMux routes task types to their handlers.
func NewMux(donations *DonationHandler, notifications *NotificationHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeDonationProcess, donations.ProcessTask)
	mux.HandleFunc(queue.TypeThankYouEmail, notifications.ProcessTask)
	return mux
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"givehub/internal/queue"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMailer records sent mail and can fail on demand.
type recordingMailer struct {
	to      []string
	subject string
	body    string
	err     error
}

func (m *recordingMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.subject = subject
	m.body = body
	return nil
}

func TestNotificationProcessTask(t *testing.T) {
	ctx := context.Background()

	payload := queue.ThankYouPayload{
		DonorEmail:      "donor@example.com",
		BeneficiaryName: "Ben Best",
		DonorName:       "Dana",
		DonationCount:   5,
		DonorID:         "donor",
		BeneficiaryID:   "ben",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	t.Run("Sends Milestone Mail", func(t *testing.T) {
		mailer := &recordingMailer{}
		handler := NewNotificationHandler(mailer)

		task := asynq.NewTask(queue.TypeThankYouEmail, body)
		require.NoError(t, handler.ProcessTask(ctx, task))

		require.Equal(t, []string{"donor@example.com"}, mailer.to)
		assert.Contains(t, mailer.subject, "Ben Best")
		assert.Contains(t, mailer.body, "5 donations")
		assert.Contains(t, mailer.body, "Dana")
	})

	t.Run("Send Failure Retries", func(t *testing.T) {
		mailer := &recordingMailer{err: errors.New("smtp refused")}
		handler := NewNotificationHandler(mailer)

		err := handler.ProcessTask(ctx, asynq.NewTask(queue.TypeThankYouEmail, body))
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("Malformed Payload Skips Retry", func(t *testing.T) {
		handler := NewNotificationHandler(&recordingMailer{})

		err := handler.ProcessTask(ctx, asynq.NewTask(queue.TypeThankYouEmail, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

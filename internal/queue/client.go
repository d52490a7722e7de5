package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Enqueuer defines the interface for scheduling work onto the job queue.
// Handlers and the transfer engine depend on this instead of the asynq client
// so tests can swap in a recording fake.
type Enqueuer interface {
	// EnqueueDonation schedules a donation for asynchronous processing and
	// returns the queue-assigned job id.
	EnqueueDonation(ctx context.Context, payload DonationPayload) (string, error)

	// EnqueueThankYou schedules a milestone thank-you notification.
	EnqueueThankYou(ctx context.Context, payload ThankYouPayload) error
}

// Client implements Enqueuer on top of asynq.
type Client struct {
	client   *asynq.Client
	maxRetry int
}

// NewClient creates a queue client over the given redis connection.
func NewClient(redis asynq.RedisConnOpt, maxRetry int) *Client {
	return &Client{client: asynq.NewClient(redis), maxRetry: maxRetry}
}

// Make sure we conform to the interface
var _ Enqueuer = (*Client)(nil)

// Close releases the underlying redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueDonation places a donation job on the donations queue.
func (c *Client) EnqueueDonation(ctx context.Context, payload DonationPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal donation payload: %w", err)
	}
	info, err := c.client.EnqueueContext(ctx,
		asynq.NewTask(TypeDonationProcess, body),
		asynq.Queue(QueueDonations),
		asynq.MaxRetry(c.maxRetry),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue donation job: %w", err)
	}
	return info.ID, nil
}

// EnqueueThankYou places a notification job on the notifications queue.
func (c *Client) EnqueueThankYou(ctx context.Context, payload ThankYouPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal thank-you payload: %w", err)
	}
	_, err = c.client.EnqueueContext(ctx,
		asynq.NewTask(TypeThankYouEmail, body),
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(c.maxRetry),
	)
	if err != nil {
		return fmt.Errorf("enqueue thank-you job: %w", err)
	}
	return nil
}

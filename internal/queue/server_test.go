package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
)

func TestRetryDelay(t *testing.T) {
	delay := RetryDelay(time.Second)
	task := asynq.NewTask(TypeDonationProcess, nil)
	err := errors.New("transient")

	assert.Equal(t, 1*time.Second, delay(0, err, task))
	assert.Equal(t, 2*time.Second, delay(1, err, task))
	assert.Equal(t, 4*time.Second, delay(2, err, task))
	assert.Equal(t, 8*time.Second, delay(3, err, task))
}

package queue

import (
	"github.com/shopspring/decimal"
)

// Task type names. Each type is consumed by exactly one handler in the worker.
const (
	TypeDonationProcess = "donation:process"
	TypeThankYouEmail   = "notification:thank_you"
)

// Queue names. The two queues are independent failure domains: a notification
// failure never re-triggers or rolls back a donation job.
const (
	QueueDonations     = "donations"
	QueueNotifications = "notifications"
)

// DonationRequest is the validated client request carried inside a donation job.
type DonationRequest struct {
	BeneficiaryID string          `json:"beneficiary_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// DonationPayload is the body of a donation-processing job.
type DonationPayload struct {
	DonorID string          `json:"donor_id"`
	DTO     DonationRequest `json:"dto"`
}

// ThankYouPayload is the body of a milestone notification job.
type ThankYouPayload struct {
	DonorEmail      string `json:"donor_email"`
	BeneficiaryName string `json:"beneficiary_name"`
	DonorName       string `json:"donor_name"`
	DonationCount   int64  `json:"donation_count"`
	DonorID         string `json:"donor_id"`
	BeneficiaryID   string `json:"beneficiary_id"`
}

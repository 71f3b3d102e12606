package model

import "time"

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type GenerationJob struct {
	ID              string
	UserTelegramID  int64
	PaymentOrderID  string
	PackID          string
	TotalPhotos     int
	CompletedPhotos int
	Status          JobStatus
	ProviderBatchID string
	ResultURLs      []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type AdminStats struct {
	UsersTotal         int
	UsersToday         int
	RevenueByMethod    map[string]int64
	PendingWithdrawals int
	OpenTickets        int
	JobsInFlight       int
}

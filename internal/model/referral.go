package model

import "time"

type ReferralEarning struct {
	ID              int64
	ReferrerID      int64
	ReferredID      int64
	PaymentOrderID  string
	PaymentAmount   int64
	Percent         int
	Amount          int64
	CreatedAt       time.Time
	ReferredHandle  string
}

type ReferralBalance struct {
	UserTelegramID int64
	Available      int64
	Withdrawn      int64
	TotalEarned    int64
}

type ReferralStats struct {
	Referrals     int
	PaidReferrals int
	TotalEarned   int64
	Available     int64
	Pending       int64
	Withdrawn     int64
}

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

type Withdrawal struct {
	ID             string
	UserTelegramID int64
	// Amount is the gross amount in kopecks; Tax is the withheld NDFL part,
	// Net is what gets paid out.
	Amount      int64
	Tax         int64
	Net         int64
	Destination string
	Status      WithdrawalStatus
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

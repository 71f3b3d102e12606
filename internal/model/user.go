package model

import "time"

type User struct {
	TelegramID       int64
	Handle           string
	Username         string
	ReferralCode     string
	ReferrerID       *int64
	Referrals        int
	Generations      int
	IsAdmin          bool
	IsPartner        bool
	RegistrationDate time.Time
	AuthDate         time.Time
}

type UserListItem struct {
	TelegramID       int64
	Handle           string
	Username         string
	Generations      int
	Referrals        int
	RegistrationDate time.Time
}

package model

import "time"

type PaymentMethod string

const (
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodSBP   PaymentMethod = "sbp"
	PaymentMethodStars PaymentMethod = "stars"
	PaymentMethodTON   PaymentMethod = "ton"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusExpired   PaymentStatus = "expired"
)

type Payment struct {
	OrderID        string
	UserTelegramID int64
	PackID         *string
	Tier           string
	Method         PaymentMethod
	// Amount is in minor units: kopecks for card/sbp, stars for stars,
	// nanotons for ton.
	Amount     int64
	Currency   string
	Status     PaymentStatus
	ProviderID string
	PaymentURL string
	TONPayload string
	CreatedAt  time.Time
	PaidAt     *time.Time
}

type Tier struct {
	Name        string
	Photos      int
	PriceRUB    int64
	PriceStars  int64
	PriceNano   int64
	Description string
}

type PaymentLink struct {
	OrderID    string
	Method     PaymentMethod
	PaymentURL string
	QRPayload  string
	TONAddress string
	TONComment string
	Amount     int64
	Currency   string
}

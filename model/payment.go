package model

import "time"

// StripeEvent is the idempotency ledger for inbound webhook events. A row's
// presence is the sole authority for "already processed": it is checked before
// side effects and inserted in the same transaction as them.
type StripeEvent struct {
	ID        string    `gorm:"primaryKey;size:191" json:"id"` // stripe event id (evt_...)
	Type      string    `gorm:"size:100;not null" json:"type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// UserPaymentMethod mirrors a card saved at Stripe. Exactly one default row
// per user, enforced in the handler, not by the store.
type UserPaymentMethod struct {
	DTO
	UserId     uint   `gorm:"not null;index" json:"userId"`
	StripePmId string `gorm:"not null;unique" json:"stripePmId"`

	CardBrand    string `gorm:"size:20" json:"cardBrand"`
	CardLast4    string `gorm:"size:4" json:"cardLast4"`
	CardExpMonth int    `json:"cardExpMonth"`
	CardExpYear  int    `json:"cardExpYear"`

	IsDefault bool `gorm:"default:false" json:"isDefault"`
}

type Refund struct {
	DTO
	OrderId        uint    `gorm:"not null;index" json:"orderId"`
	Amount         float64 `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status         string  `gorm:"default:PENDING" json:"status"` // PENDING, SUCCEEDED
	Type           string  `gorm:"not null" json:"type"`          // gateway, cash
	StripeRefundId *string `json:"stripeRefundId,omitempty"`
	IsPartial      bool    `gorm:"default:false" json:"isPartial"`
	RequestedBy    uint    `json:"requestedBy"`
}

type CreateIntentInput struct {
	OrderId uint `validate:"required,gt=0" json:"orderId"`
}

type RefundInput struct {
	OrderId uint `validate:"required,gt=0" json:"orderId"`
	// Minor units (cents). Nil means full refund.
	Amount *int64 `validate:"omitempty,gt=0" json:"amount"`
	Reason string `json:"reason"`
}

type SavePaymentMethodInput struct {
	StripePmId   string `validate:"required" json:"stripePmId"`
	CardBrand    string `json:"cardBrand"`
	CardLast4    string `validate:"omitempty,len=4" json:"cardLast4"`
	CardExpMonth int    `validate:"omitempty,gte=1,lte=12" json:"cardExpMonth"`
	CardExpYear  int    `json:"cardExpYear"`
	SetDefault   bool   `json:"setDefault"`
}

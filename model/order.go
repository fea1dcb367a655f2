package model

import "time"

type Order struct {
	DTO
	OrderNumber string `gorm:"unique;size:24" json:"orderNumber"` // public code, e.g. ORD-XXXXXXXX

	UserId uint `gorm:"not null;index" json:"userId"`
	User   User `gorm:"foreignKey:UserId" json:"user"`

	RestaurantId uint       `gorm:"not null;index" json:"restaurantId"`
	Restaurant   Restaurant `gorm:"foreignKey:RestaurantId" json:"restaurant"`

	Items []OrderItem `gorm:"foreignKey:OrderId" json:"items"`

	Subtotal    float64 `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Discount    float64 `gorm:"type:decimal(10,2);default:0" json:"discount"`
	DeliveryFee float64 `gorm:"type:decimal(10,2);default:0" json:"deliveryFee"`
	Total       float64 `gorm:"type:decimal(10,2);not null" json:"total"`
	Currency    string  `gorm:"size:3;default:'USD'" json:"currency"`

	// Fulfillment state, separate from payment state.
	Status string `gorm:"default:PLACED" json:"status"` // PLACED, ACCEPTED, PREPARING, READY, PICKED_UP, DELIVERED, CANCELLED

	PaymentMethod string `gorm:"not null" json:"paymentMethod"` // CASH, CARD, WALLET, ONLINE
	PaymentStatus string `gorm:"default:UNPAID" json:"paymentStatus"` // UNPAID, PAID, FAILED, REFUNDED

	// At most one live gateway intent per order; set only by the intent
	// orchestrator, cleared never.
	StripePaymentIntentId *string `gorm:"index" json:"-"`

	PromoCodeId *uint `json:"promoCodeId,omitempty"`

	DeliveryAddress string     `json:"deliveryAddress"` // snapshot at placement time
	Note            string     `json:"note"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
	DeliveredAt     *time.Time `json:"deliveredAt,omitempty"`
}

type Orders []Order

type OrderItem struct {
	DTO
	OrderId    uint     `gorm:"not null;index" json:"orderId"`
	MenuItemId uint     `gorm:"not null" json:"menuItemId"`
	MenuItem   MenuItem `gorm:"foreignKey:MenuItemId" json:"-"`

	Name      string  `gorm:"not null" json:"name"` // snapshot, menu may change later
	UnitPrice float64 `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	Quantity  int     `gorm:"not null" json:"quantity"`
}

type OrderItemInput struct {
	MenuItemId uint `validate:"required,gt=0" json:"menuItemId"`
	Quantity   int  `validate:"required,gt=0,lte=50" json:"quantity"`
}

type PlaceOrderInput struct {
	RestaurantId    uint             `validate:"required,gt=0" json:"restaurantId"`
	Items           []OrderItemInput `validate:"required,min=1,dive" json:"items"`
	PaymentMethod   string           `validate:"required,oneof=CASH CARD WALLET ONLINE" json:"paymentMethod"`
	DeliveryAddress string           `validate:"required" json:"deliveryAddress"`
	PromoCode       *string          `json:"promoCode"`
	Note            string           `json:"note"`
}

type UpdateOrderStatusInput struct {
	Status string `validate:"required,oneof=ACCEPTED PREPARING READY PICKED_UP DELIVERED" json:"status"`
}

type CourierPositionInput struct {
	Latitude  float64 `validate:"required" json:"latitude"`
	Longitude float64 `validate:"required" json:"longitude"`
}

package model

import "time"

type PromoCode struct {
	DTO
	Code          string    `gorm:"unique;not null" json:"code"`
	Name          string    `gorm:"not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	DiscountType  string    `gorm:"not null" json:"discountType"` // percentage, fixed
	DiscountValue float64   `gorm:"type:decimal(10,2);not null" json:"discountValue"`
	MinOrderTotal float64   `gorm:"type:decimal(10,2);default:0" json:"minOrderTotal"`
	StartDate     time.Time `gorm:"not null" json:"startDate"`
	EndDate       time.Time `gorm:"not null" json:"endDate"`
	MaxUsage      int       `gorm:"default:0" json:"maxUsage"`        // 0 = unlimited
	MaxPerUser    int       `gorm:"default:1" json:"maxPerUser"`
	Status        string    `gorm:"default:'active';not null" json:"status"` // active, inactive, expired

	MallId *uint `json:"mallId"` // nil = platform wide
	Mall   *Mall `gorm:"foreignKey:MallId" json:"mall,omitempty"`
}

type PromoCodes []PromoCode

type PromoUsage struct {
	DTO
	PromoCodeId     uint      `gorm:"not null;index" json:"promoCodeId"`
	OrderId         uint      `gorm:"not null;index" json:"orderId"`
	UserId          uint      `gorm:"index" json:"userId"`
	AppliedAt       time.Time `gorm:"not null"`
	DiscountApplied float64   `gorm:"type:decimal(10,2);not null"`
}

type CreatePromoCodeInput struct {
	Code          string    `validate:"required,uppercase" json:"code"`
	Name          string    `validate:"required" json:"name"`
	Description   string    `json:"description"`
	DiscountType  string    `validate:"required,oneof=percentage fixed" json:"discountType"`
	DiscountValue float64   `validate:"required,gt=0" json:"discountValue"`
	MinOrderTotal float64   `validate:"gte=0" json:"minOrderTotal"`
	StartDate     time.Time `validate:"required" json:"startDate"`
	EndDate       time.Time `validate:"required" json:"endDate"`
	MaxUsage      int       `validate:"gte=0" json:"maxUsage"`
	MaxPerUser    int       `validate:"gte=0" json:"maxPerUser"`
	MallId        *uint     `json:"mallId"`
}

type EditPromoCodeInput struct {
	Name          *string    `json:"name"`
	Description   *string    `json:"description"`
	DiscountValue *float64   `json:"discountValue"`
	MinOrderTotal *float64   `json:"minOrderTotal"`
	EndDate       *time.Time `json:"endDate"`
	MaxUsage      *int       `json:"maxUsage"`
	MaxPerUser    *int       `json:"maxPerUser"`
	Status        *string    `json:"status"`
}

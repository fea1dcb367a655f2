package model

import "time"

type User struct {
	DTO
	Email    string `gorm:"unique;not null" json:"email"`
	Phone    string `gorm:"not null" json:"phone"`
	Password string `gorm:"not null" json:"-"`
	UserName string `json:"username"`

	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`

	AvatarUrl *string `json:"avatarUrl"`
	Role      string  `gorm:"default:USER" json:"role"` // USER, ADMIN, RESTAURANT

	StripeCustomerId *string `gorm:"uniqueIndex" json:"-"` // billing reference, set on first saved card

	EmailVerified bool `gorm:"default:false" json:"emailVerified"`
	IsActive      bool `gorm:"default:true" json:"isActive"`

	Addresses []UserAddress `gorm:"foreignKey:UserId" json:"addresses,omitempty"`
}

type Users []User

type UserAddress struct {
	DTO
	UserId    uint    `gorm:"not null;index" json:"userId"`
	Label     string  `json:"label"` // Home, Work...
	Line1     string  `gorm:"not null" json:"line1"`
	Line2     *string `json:"line2"`
	CityId    uint    `json:"cityId"`
	City      City    `gorm:"foreignKey:CityId" json:"city"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	IsDefault bool    `gorm:"default:false" json:"isDefault"`
}

type RegisterUserInput struct {
	UserName string `validate:"required" json:"username"`
	Email    string `validate:"required,email" json:"email"`
	Phone    string `validate:"required" json:"phone"`
	Password string `validate:"required,min=8" json:"password"`
}

type LoginInput struct {
	Email    string `validate:"required,email" json:"email"`
	Password string `validate:"required" json:"password"`
}

type EditUserInput struct {
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
	Phone     *string `json:"phone"`
	AvatarUrl *string `json:"avatarUrl"`
}

type UserChangePassword struct {
	CurrentPassword string `validate:"required" json:"currentPassword"`
	NewPassword     string `validate:"required,min=8" json:"newPassword"`
	RepeatPassword  string `validate:"required" json:"repeatPassword"`
}

type FilterUser struct {
	Pagination
	SearchKey string `json:"searchKey"`
	Role      string `json:"role"`
	Active    *bool  `json:"active"`
}

type VerifyOtpInput struct {
	Email string `validate:"required,email" json:"email"`
	Code  string `validate:"required,len=6" json:"code"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetToken struct {
	DTO
	UserId    uint      `gorm:"not null" json:"userId"`
	Token     string    `gorm:"type:varchar(255);not null;unique" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	User      User      `gorm:"foreignKey:UserId" json:"user"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

package model

type Restaurant struct {
	DTO
	Name        string  `gorm:"not null" json:"name"`
	Slug        string  `gorm:"unique;size:100" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	Phone       string  `json:"phone"`
	Cuisine     string  `json:"cuisine"`
	LogoUrl     *string `json:"logoUrl"`
	DeliveryFee float64 `gorm:"type:decimal(10,2);default:0" json:"deliveryFee"`

	MallId uint `gorm:"not null;index" json:"mallId"`
	Mall   Mall `gorm:"foreignKey:MallId" json:"mall"`

	OwnerId uint `gorm:"not null;index" json:"ownerId"`
	Owner   User `gorm:"foreignKey:OwnerId" json:"-"`

	Status string `gorm:"default:PENDING" json:"status"` // PENDING, APPROVED, REJECTED, DISABLED
	IsOpen bool   `gorm:"default:false" json:"isOpen"`   // maintained by the business-hours cron

	// Marketplace payout fields. The connect account id is write-once: the
	// get-or-create flow never overwrites a persisted id.
	StripeConnectAccountId *string `gorm:"uniqueIndex" json:"-"`
	StripeAccountStatus    string  `gorm:"default:none" json:"stripeAccountStatus"` // none, pending, completed, rejected
	BankAccountAdded       bool    `gorm:"default:false" json:"bankAccountAdded"`
	CommissionRate         float64 `gorm:"type:decimal(5,4);default:0" json:"commissionRate"` // fraction 0..1, 0 = platform default

	BusinessHours []BusinessHour `gorm:"foreignKey:RestaurantId" json:"businessHours,omitempty"`
	Gallery       []GalleryImage `gorm:"foreignKey:RestaurantId" json:"gallery,omitempty"`
	Categories    []MenuCategory `gorm:"foreignKey:RestaurantId" json:"categories,omitempty"`
}

type Restaurants []Restaurant

type BusinessHour struct {
	DTO
	RestaurantId uint   `gorm:"not null;index" json:"restaurantId"`
	Weekday      int    `gorm:"not null" json:"weekday"` // 0 = Sunday
	OpensAt      string `gorm:"size:5;not null" json:"opensAt"`  // HH:MM
	ClosesAt     string `gorm:"size:5;not null" json:"closesAt"` // HH:MM
	Closed       bool   `gorm:"default:false" json:"closed"`
}

type CreateRestaurantInput struct {
	Name        string  `validate:"required" json:"name"`
	Description string  `json:"description"`
	Phone       string  `json:"phone"`
	Cuisine     string  `json:"cuisine"`
	MallId      uint    `validate:"required,gt=0" json:"mallId"`
	OwnerId     uint    `validate:"required,gt=0" json:"ownerId"`
	LogoUrl     *string `json:"logoUrl"`
}

type EditRestaurantInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Phone       *string  `json:"phone"`
	Cuisine     *string  `json:"cuisine"`
	LogoUrl     *string  `json:"logoUrl"`
	DeliveryFee *float64 `validate:"omitempty,gte=0" json:"deliveryFee"`
}

type SetCommissionInput struct {
	CommissionRate float64 `validate:"gte=0,lte=1" json:"commissionRate"`
}

type ModerateRestaurantInput struct {
	Status string `validate:"required,oneof=APPROVED REJECTED DISABLED" json:"status"`
	Reason string `json:"reason"`
}

type BusinessHourInput struct {
	Weekday  int    `validate:"gte=0,lte=6" json:"weekday"`
	OpensAt  string `validate:"required" json:"opensAt"`
	ClosesAt string `validate:"required" json:"closesAt"`
	Closed   bool   `json:"closed"`
}

type SetBusinessHoursInput struct {
	Hours []BusinessHourInput `validate:"required,min=1,max=7,dive" json:"hours"`
}

type FilterRestaurant struct {
	Pagination
	SearchKey string `json:"searchKey"`
	MallId    *uint  `json:"mallId"`
	Cuisine   string `json:"cuisine"`
	Status    string `json:"status"`
	OpenNow   *bool  `json:"openNow"`
}

package model

type MenuCategory struct {
	DTO
	RestaurantId uint   `gorm:"not null;index" json:"restaurantId"`
	Name         string `gorm:"not null" json:"name"`
	SortOrder    int    `gorm:"default:0" json:"sortOrder"`

	Items []MenuItem `gorm:"foreignKey:CategoryId" json:"items,omitempty"`
}

type MenuItem struct {
	DTO
	CategoryId   uint         `gorm:"not null;index" json:"categoryId"`
	Category     MenuCategory `gorm:"foreignKey:CategoryId" json:"-"`
	RestaurantId uint         `gorm:"not null;index" json:"restaurantId"`

	Name        string  `gorm:"not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageUrl    *string `json:"imageUrl"`
	IsVeg       bool    `gorm:"default:false" json:"isVeg"`
	IsAvailable bool    `gorm:"default:true" json:"isAvailable"`
}

type CreateMenuCategoryInput struct {
	Name      string `validate:"required" json:"name"`
	SortOrder int    `json:"sortOrder"`
}

type CreateMenuItemInput struct {
	CategoryId  uint    `validate:"required,gt=0" json:"categoryId"`
	Name        string  `validate:"required" json:"name"`
	Description string  `json:"description"`
	Price       float64 `validate:"required,gt=0" json:"price"`
	ImageUrl    *string `json:"imageUrl"`
	IsVeg       bool    `json:"isVeg"`
}

type EditMenuItemInput struct {
	CategoryId  *uint    `json:"categoryId"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	ImageUrl    *string  `json:"imageUrl"`
	IsVeg       *bool    `json:"isVeg"`
	IsAvailable *bool    `json:"isAvailable"`
}

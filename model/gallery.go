package model

type GalleryImage struct {
	DTO
	RestaurantId uint    `gorm:"not null;index" json:"restaurantId"`
	Url          string  `gorm:"not null" json:"url"`
	PublicId     string  `gorm:"not null" json:"publicId"` // cloudinary public id, needed for delete
	Caption      *string `json:"caption"`
	SortOrder    int     `gorm:"default:0" json:"sortOrder"`
}

type AddGalleryImageInput struct {
	Url      string  `validate:"required,url" json:"url"`
	PublicId string  `validate:"required" json:"publicId"`
	Caption  *string `json:"caption"`
}

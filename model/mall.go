package model

type Country struct {
	DTO
	Name     string `gorm:"unique;not null" json:"name"`
	Code     string `gorm:"unique;size:2;not null" json:"code"` // ISO 3166-1 alpha-2
	Currency string `gorm:"size:3;not null" json:"currency"`    // ISO 4217

	Cities []City `gorm:"foreignKey:CountryId" json:"cities,omitempty"`
}

type City struct {
	DTO
	Name      string  `gorm:"not null" json:"name"`
	CountryId uint    `gorm:"not null;index" json:"countryId"`
	Country   Country `gorm:"foreignKey:CountryId" json:"country"`

	Malls []Mall `gorm:"foreignKey:CityId" json:"malls,omitempty"`
}

type Mall struct {
	DTO
	Name    string  `gorm:"not null" json:"name"`
	Slug    string  `gorm:"unique;size:100" json:"slug"`
	Address string  `json:"address"`
	CityId  uint    `gorm:"not null;index" json:"cityId"`
	City    City    `gorm:"foreignKey:CityId" json:"city"`
	LogoUrl *string `json:"logoUrl"`

	IsActive bool `gorm:"default:true" json:"isActive"`

	Restaurants []Restaurant `gorm:"foreignKey:MallId" json:"restaurants,omitempty"`
}

type CreateCountryInput struct {
	Name     string `validate:"required" json:"name"`
	Code     string `validate:"required,len=2" json:"code"`
	Currency string `validate:"required,len=3" json:"currency"`
}

type CreateCityInput struct {
	Name      string `validate:"required" json:"name"`
	CountryId uint   `validate:"required,gt=0" json:"countryId"`
}

type CreateMallInput struct {
	Name    string  `validate:"required" json:"name"`
	Address string  `json:"address"`
	CityId  uint    `validate:"required,gt=0" json:"cityId"`
	LogoUrl *string `json:"logoUrl"`
}

type EditMallInput struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	CityId   *uint   `json:"cityId"`
	LogoUrl  *string `json:"logoUrl"`
	IsActive *bool   `json:"isActive"`
}

package database

import (
	"log"
	"mall_manager/constants"
	"mall_manager/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func SeedData(db *gorm.DB) {
	bytes, err := bcrypt.GenerateFromPassword([]byte("changeme123"), 10)
	HashPassword := string(bytes)
	if err != nil {
		HashPassword = "changeme123"
	}
	admins := []model.User{
		{UserName: "Administration", Email: "admin@mallmanager.local", Phone: "0000000000", Password: HashPassword, Role: constants.RoleAdmin, EmailVerified: true},
	}

	for _, admin := range admins {
		if err := db.Where(model.User{Email: admin.Email}).FirstOrCreate(&admin).Error; err != nil {
			log.Println("failed to seed admin:", admin.Email, "error:", err)
		}
	}

	countries := []model.Country{
		{Name: "United Arab Emirates", Code: "AE", Currency: "AED"},
		{Name: "United States", Code: "US", Currency: "USD"},
	}
	for _, country := range countries {
		if err := db.Where(model.Country{Code: country.Code}).FirstOrCreate(&country).Error; err != nil {
			log.Println("failed to seed country:", country.Name, "error:", err)
			continue
		}
	}

	var uae model.Country
	if err := db.Where("code = ?", "AE").First(&uae).Error; err == nil {
		cities := []model.City{
			{Name: "Dubai", CountryId: uae.ID},
			{Name: "Abu Dhabi", CountryId: uae.ID},
		}
		for _, city := range cities {
			if err := db.Where(model.City{Name: city.Name, CountryId: city.CountryId}).FirstOrCreate(&city).Error; err != nil {
				log.Println("failed to seed city:", city.Name, "error:", err)
			}
		}
	}
}

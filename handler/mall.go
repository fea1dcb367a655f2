package handler

import (
	"errors"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

func GetCountries(c *fiber.Ctx) error {
	var countries []model.Country
	if err := database.DB.Preload("Cities").Order("name").Find(&countries).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, countries)
}

func CreateCountry(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateCountryInput)

	var country model.Country
	copier.Copy(&country, &input)
	if err := database.DB.Create(&country).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create country", err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, country)
}

func CreateCity(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateCityInput)

	var city model.City
	copier.Copy(&city, &input)
	if err := database.DB.Create(&city).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create city", err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, city)
}

func GetCitiesByCountry(c *fiber.Ctx) error {
	countryId := c.Locals("inputId").(int)

	var cities []model.City
	if err := database.DB.Where("country_id = ?", countryId).Order("name").Find(&cities).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, cities)
}

func CreateMall(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateMallInput)

	var mall model.Mall
	copier.Copy(&mall, &input)
	mall.Slug = helper.GenerateUniqueMallSlug(database.DB, input.Name)

	if err := database.DB.Create(&mall).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create mall", err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, mall)
}

func EditMall(c *fiber.Ctx) error {
	mallId := c.Locals("inputId").(int)
	input := c.Locals("input").(model.EditMallInput)

	var mall model.Mall
	if err := database.DB.First(&mall, mallId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Mall not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	copier.CopyWithOption(&mall, &input, copier.Option{IgnoreEmpty: true})
	if input.Name != nil && *input.Name != "" {
		mall.Slug = helper.GenerateUniqueMallSlug(database.DB, *input.Name)
	}

	if err := database.DB.Save(&mall).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update mall", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, mall)
}

func DeleteMall(c *fiber.Ctx) error {
	input := c.Locals("deleteIds").(model.ArrayId)

	if err := database.DB.Delete(&model.Mall{}, input.IDs).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete malls", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"deleted": input.IDs})
}

// GetMalls is the public mall listing, filterable by city and search key.
func GetMalls(c *fiber.Ctx) error {
	cityId := c.QueryInt("cityId", 0)
	search := c.Query("search")

	query := database.DB.Model(&model.Mall{}).Preload("City").Preload("City.Country").Where("is_active IS true")
	if cityId > 0 {
		query = query.Where("city_id = ?", cityId)
	}
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var malls []model.Mall
	if err := query.Order("name").Find(&malls).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, malls)
}

func GetMallDetail(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var mall model.Mall
	if err := database.DB.
		Preload("City").
		Preload("Restaurants", "status = ?", constants.RestaurantApproved).
		Where("slug = ? AND is_active IS true", slug).
		First(&mall).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Mall not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, mall)
}

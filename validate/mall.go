package validate

import (
	"errors"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/model"
	"mall_manager/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func CreateCountry() fiber.Handler {
	return body[model.CreateCountryInput]()
}

func CreateCity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.CreateCityInput](c)
		if input == nil {
			return err
		}

		var country model.Country
		if err := database.DB.First(&country, input.CountryId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Country does not exist", errors.New("countryId not found"))
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Database error", err)
		}

		c.Locals("input", *input)
		return c.Next()
	}
}

func CreateMall() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.CreateMallInput](c)
		if input == nil {
			return err
		}

		var city model.City
		if err := database.DB.First(&city, input.CityId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "City does not exist", errors.New("cityId not found"))
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Database error", err)
		}

		var existing model.Mall
		if err := database.DB.Where("city_id = ? AND name = ?", input.CityId, input.Name).First(&existing).Error; err == nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Mall name already exists in this city", errors.New("DUPLICATE_MALL_NAME"))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Database error", err)
		}

		c.Locals("input", *input)
		return c.Next()
	}
}

func EditMall(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params := c.Params(key)
		id, err := strconv.Atoi(params)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
		}

		input, respErr := parseAndValidate[model.EditMallInput](c)
		if input == nil {
			return respErr
		}

		c.Locals("inputId", id)
		c.Locals("input", *input)
		return c.Next()
	}
}

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

func CreateRestaurant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.CreateRestaurantInput](c)
		if input == nil {
			return err
		}

		var mall model.Mall
		if err := database.DB.First(&mall, input.MallId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Mall does not exist", errors.New("mallId not found"))
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Database error", err)
		}

		var owner model.User
		if err := database.DB.First(&owner, input.OwnerId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Owner does not exist", errors.New("ownerId not found"))
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Database error", err)
		}

		c.Locals("input", *input)
		return c.Next()
	}
}

func EditRestaurant(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params := c.Params(key)
		id, err := strconv.Atoi(params)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
		}

		input, respErr := parseAndValidate[model.EditRestaurantInput](c)
		if input == nil {
			return respErr
		}

		c.Locals("inputId", id)
		c.Locals("input", *input)
		return c.Next()
	}
}

func ModerateRestaurant(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params := c.Params(key)
		id, err := strconv.Atoi(params)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
		}

		input, respErr := parseAndValidate[model.ModerateRestaurantInput](c)
		if input == nil {
			return respErr
		}

		c.Locals("inputId", id)
		c.Locals("input", *input)
		return c.Next()
	}
}

func SetCommission(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params := c.Params(key)
		id, err := strconv.Atoi(params)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
		}

		input, respErr := parseAndValidate[model.SetCommissionInput](c)
		if input == nil {
			return respErr
		}

		c.Locals("inputId", id)
		c.Locals("input", *input)
		return c.Next()
	}
}

func SetBusinessHours() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.SetBusinessHoursInput](c)
		if input == nil {
			return err
		}

		seen := map[int]bool{}
		for _, h := range input.Hours {
			if seen[h.Weekday] {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Duplicate weekday in business hours", errors.New("DUPLICATE_WEEKDAY"))
			}
			seen[h.Weekday] = true
		}

		c.Locals("input", *input)
		return c.Next()
	}
}

func AddGalleryImage() fiber.Handler {
	return body[model.AddGalleryImageInput]()
}

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

func CreateMenuCategory() fiber.Handler {
	return body[model.CreateMenuCategoryInput]()
}

func CreateMenuItem() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.CreateMenuItemInput](c)
		if input == nil {
			return err
		}

		var category model.MenuCategory
		if err := database.DB.First(&category, input.CategoryId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Menu category does not exist", errors.New("categoryId not found"))
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Database error", err)
		}

		c.Locals("input", *input)
		c.Locals("category", category)
		return c.Next()
	}
}

func EditMenuItem(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params := c.Params(key)
		id, err := strconv.Atoi(params)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
		}

		input, respErr := parseAndValidate[model.EditMenuItemInput](c)
		if input == nil {
			return respErr
		}

		c.Locals("inputId", id)
		c.Locals("input", *input)
		return c.Next()
	}
}

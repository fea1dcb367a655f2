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

func CreatePromoCode() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.CreatePromoCodeInput](c)
		if input == nil {
			return err
		}

		if !input.EndDate.After(input.StartDate) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "End date must be after start date", errors.New("INVALID_DATE_RANGE"))
		}

		if input.DiscountType == "percentage" && input.DiscountValue > 100 {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Percentage discount cannot exceed 100", errors.New("INVALID_DISCOUNT"))
		}

		var existing model.PromoCode
		if err := database.DB.Where("code = ?", input.Code).First(&existing).Error; err == nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Promo code already exists", errors.New("DUPLICATE_PROMO_CODE"))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Database error", err)
		}

		c.Locals("input", *input)
		return c.Next()
	}
}

func EditPromoCode(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params := c.Params(key)
		id, err := strconv.Atoi(params)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
		}

		input, respErr := parseAndValidate[model.EditPromoCodeInput](c)
		if input == nil {
			return respErr
		}

		c.Locals("inputId", id)
		c.Locals("input", *input)
		return c.Next()
	}
}

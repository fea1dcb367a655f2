package handler

import (
	"errors"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/model"
	"mall_manager/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

func CreatePromoCode(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreatePromoCodeInput)

	var promo model.PromoCode
	copier.Copy(&promo, &input)
	promo.Status = "active"

	if err := database.DB.Create(&promo).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create promo code", err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, promo)
}

func GetPromoCodes(c *fiber.Ctx) error {
	var promos model.PromoCodes
	if err := database.DB.Preload("Mall").Order("created_at desc").Find(&promos).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, promos)
}

func EditPromoCode(c *fiber.Ctx) error {
	promoId := c.Locals("inputId").(int)
	input := c.Locals("input").(model.EditPromoCodeInput)

	var promo model.PromoCode
	if err := database.DB.First(&promo, promoId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Promo code not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	copier.CopyWithOption(&promo, &input, copier.Option{IgnoreEmpty: true})
	if err := database.DB.Save(&promo).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update promo code", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, promo)
}

func DeletePromoCode(c *fiber.Ctx) error {
	input := c.Locals("deleteIds").(model.ArrayId)

	if err := database.DB.Delete(&model.PromoCode{}, input.IDs).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete promo codes", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"deleted": input.IDs})
}

// resolvePromo validates a code inside the order placement transaction and
// returns the discount for the given subtotal. Returns a nil promo when the
// code cannot be applied.
func resolvePromo(tx *gorm.DB, code string, userId uint, mallId uint, subtotal float64) (*model.PromoCode, float64, error) {
	var promo model.PromoCode
	now := time.Now()

	err := tx.Where("code = ? AND status = ? AND start_date <= ? AND end_date >= ?", code, "active", now, now).
		First(&promo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, errors.New("promo code invalid or expired")
		}
		return nil, 0, err
	}

	if promo.MallId != nil && *promo.MallId != mallId {
		return nil, 0, errors.New("promo code not valid for this mall")
	}
	if subtotal < promo.MinOrderTotal {
		return nil, 0, errors.New("order total below promo minimum")
	}

	if promo.MaxUsage > 0 {
		var used int64
		tx.Model(&model.PromoUsage{}).Where("promo_code_id = ?", promo.ID).Count(&used)
		if used >= int64(promo.MaxUsage) {
			return nil, 0, errors.New("promo code exhausted")
		}
	}
	if promo.MaxPerUser > 0 {
		var usedByUser int64
		tx.Model(&model.PromoUsage{}).Where("promo_code_id = ? AND user_id = ?", promo.ID, userId).Count(&usedByUser)
		if usedByUser >= int64(promo.MaxPerUser) {
			return nil, 0, errors.New("promo code already used")
		}
	}

	discount := promo.DiscountValue
	if promo.DiscountType == "percentage" {
		discount = subtotal * promo.DiscountValue / 100
	}
	if discount > subtotal {
		discount = subtotal
	}

	return &promo, discount, nil
}

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

func GetUsers(c *fiber.Ctx) error {
	var filter model.FilterUser
	if err := c.QueryParser(&filter); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
	}

	query := database.DB.Model(&model.User{})
	if filter.SearchKey != "" {
		like := "%" + filter.SearchKey + "%"
		query = query.Where("email ILIKE ? OR user_name ILIKE ? OR phone ILIKE ?", like, like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}

	var totalCount int64
	query.Count(&totalCount)

	var users model.Users
	if err := utils.ApplyPagination(query, filter.Limit, filter.Page).Order("created_at desc").Find(&users).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       users,
		Limit:      filter.Limit,
		Page:       filter.Page,
		TotalCount: totalCount,
	})
}

func GetUserById(c *fiber.Ctx) error {
	userId := c.Locals("inputId").(int)

	var user model.User
	if err := database.DB.Preload("Addresses").First(&user, userId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, user)
}

func EditProfile(c *fiber.Ctx) error {
	input := c.Locals("input").(model.EditUserInput)
	claim, user := helper.GetInfoUserFromToken(c)
	if claim.UserId == 0 || user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
	}

	copier.CopyWithOption(&user, &input, copier.Option{IgnoreEmpty: true})
	if err := database.DB.Save(&user).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, user)
}

func ChangePassword(c *fiber.Ctx) error {
	input := c.Locals("input").(model.UserChangePassword)
	_, user := helper.GetInfoUserFromToken(c)
	if user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
	}

	if !helper.CheckPasswordHash(input.CurrentPassword, user.Password) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Current password is incorrect", errors.New("password mismatch"))
	}

	hashed, err := helper.HashPassword(input.NewPassword)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	if err := database.DB.Model(&user).Update("password", hashed).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"message": "Password changed"})
}

func ActiveUser(c *fiber.Ctx) error {
	userId := c.Locals("inputId").(int)
	isActive := c.Params("isActive") == "true"

	result := database.DB.Model(&model.User{}).Where("id = ?", userId).Update("is_active", isActive)
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", nil)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"id": userId, "isActive": isActive})
}

// SavePaymentMethod mirrors a card the client attached via Stripe.js. The
// first save also creates the user's Stripe customer, which the intent
// orchestrator requires later.
func SavePaymentMethod(c *fiber.Ctx) error {
	input := c.Locals("input").(model.SavePaymentMethodInput)
	_, user := helper.GetInfoUserFromToken(c)
	if user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
	}

	if user.StripeCustomerId == nil {
		cust, err := helper.StripeClient.CreateCustomer(user.Email, user.UserName)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to create billing customer", err)
		}
		if err := database.DB.Model(&user).Update("stripe_customer_id", cust.ID).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
		}
	}

	pm := model.UserPaymentMethod{
		UserId:       user.ID,
		StripePmId:   input.StripePmId,
		CardBrand:    input.CardBrand,
		CardLast4:    input.CardLast4,
		CardExpMonth: input.CardExpMonth,
		CardExpYear:  input.CardExpYear,
	}

	var count int64
	database.DB.Model(&model.UserPaymentMethod{}).Where("user_id = ?", user.ID).Count(&count)
	makeDefault := input.SetDefault || count == 0

	tx := database.DB.Begin()
	if makeDefault {
		if err := tx.Model(&model.UserPaymentMethod{}).Where("user_id = ?", user.ID).Update("is_default", false).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
		}
		pm.IsDefault = true
	}
	if err := tx.Create(&pm).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to save payment method", err)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, pm)
}

func GetPaymentMethods(c *fiber.Ctx) error {
	_, user := helper.GetInfoUserFromToken(c)
	if user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
	}

	var methods []model.UserPaymentMethod
	if err := database.DB.Where("user_id = ?", user.ID).Order("is_default desc, created_at desc").Find(&methods).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, methods)
}

func SetDefaultPaymentMethod(c *fiber.Ctx) error {
	pmId := c.Locals("inputId").(int)
	_, user := helper.GetInfoUserFromToken(c)
	if user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
	}

	var pm model.UserPaymentMethod
	if err := database.DB.Where("id = ? AND user_id = ?", pmId, user.ID).First(&pm).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Payment method not found", err)
	}

	// Exactly one default per user, swapped in one transaction.
	tx := database.DB.Begin()
	if err := tx.Model(&model.UserPaymentMethod{}).Where("user_id = ?", user.ID).Update("is_default", false).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if err := tx.Model(&pm).Update("is_default", true).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, pm)
}

func DeletePaymentMethod(c *fiber.Ctx) error {
	pmId := c.Locals("inputId").(int)
	_, user := helper.GetInfoUserFromToken(c)
	if user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
	}

	var pm model.UserPaymentMethod
	if err := database.DB.Where("id = ? AND user_id = ?", pmId, user.ID).First(&pm).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Payment method not found", err)
	}

	wasDefault := pm.IsDefault
	if err := database.DB.Delete(&pm).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	// Promote the newest remaining card so one default always survives.
	if wasDefault {
		var next model.UserPaymentMethod
		if err := database.DB.Where("user_id = ?", user.ID).Order("created_at desc").First(&next).Error; err == nil {
			database.DB.Model(&next).Update("is_default", true)
		}
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"deleted": pm.ID})
}

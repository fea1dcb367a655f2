package handler

import (
	"errors"
	"mall_manager/config"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"
	"os"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetOrCreateStripeAccount returns the restaurant's payout account id,
// creating it at Stripe on first call. The id is write-once: a restaurant
// that already has one gets it back untouched, never a second account.
func GetOrCreateStripeAccount(c *fiber.Ctx) error {
	restaurantId, err := c.ParamsInt("restaurantId")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, uint(restaurantId)) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	var restaurant model.Restaurant
	if err := database.DB.First(&restaurant, restaurantId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Restaurant not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	// Idempotent fast path.
	if restaurant.StripeConnectAccountId != nil {
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
			"accountId": *restaurant.StripeConnectAccountId,
			"status":    restaurant.StripeAccountStatus,
			"created":   false,
		})
	}

	country := config.ConfigOr("STRIPE_ACCOUNT_COUNTRY", "AE")
	acct, err := helper.StripeClient.CreateAccount(country)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to create payout account", err)
	}

	// Persist id and pending status in one write, guarded so an id written
	// by a concurrent request is never overwritten.
	result := database.DB.Model(&model.Restaurant{}).
		Where("id = ? AND stripe_connect_account_id IS NULL", restaurant.ID).
		Updates(map[string]interface{}{
			"stripe_connect_account_id": acct.ID,
			"stripe_account_status":     constants.StripeAccountPending,
		})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, result.Error)
	}

	// Re-read and verify. A mismatch means a concurrent create won the race
	// or the write partially failed, so this gateway account is orphaned.
	var stored model.Restaurant
	if err := database.DB.First(&stored, restaurant.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if stored.StripeConnectAccountId == nil || *stored.StripeConnectAccountId != acct.ID {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Payout account id verification failed",
			errors.New("stored account id does not match created account"))
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"accountId": acct.ID,
		"status":    constants.StripeAccountPending,
		"created":   true,
	})
}

// GenerateOnboardingLink builds the Stripe-hosted onboarding URL. It never
// creates an account as a side effect.
func GenerateOnboardingLink(c *fiber.Ctx) error {
	restaurantId, err := c.ParamsInt("restaurantId")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, uint(restaurantId)) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	var restaurant model.Restaurant
	if err := database.DB.First(&restaurant, restaurantId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Restaurant not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	if restaurant.StripeConnectAccountId == nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Restaurant has no payout account yet", errors.New("NO_STRIPE_ACCOUNT"))
	}

	appUrl := os.Getenv("APP_URL")
	link, err := helper.StripeClient.CreateAccountLink(
		*restaurant.StripeConnectAccountId,
		appUrl+"/restaurant/stripe/refresh",
		appUrl+"/restaurant/stripe/return",
	)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to create onboarding link", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"url": link.URL})
}

// GetStripeAccountStatus reports the live tri-state status from the gateway.
func GetStripeAccountStatus(c *fiber.Ctx) error {
	restaurantId, err := c.ParamsInt("restaurantId")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, uint(restaurantId)) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	var restaurant model.Restaurant
	if err := database.DB.First(&restaurant, restaurantId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Restaurant not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if restaurant.StripeConnectAccountId == nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Restaurant has no payout account", errors.New("NO_STRIPE_ACCOUNT"))
	}

	acct, err := helper.StripeClient.RetrieveAccount(*restaurant.StripeConnectAccountId)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to retrieve payout account", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"accountId":        *restaurant.StripeConnectAccountId,
		"status":           helper.DeriveAccountStatus(acct),
		"chargesEnabled":   acct.ChargesEnabled,
		"payoutsEnabled":   acct.PayoutsEnabled,
		"bankAccountAdded": helper.HasExternalAccount(acct),
	})
}

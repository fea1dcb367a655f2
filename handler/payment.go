package handler

import (
	"errors"
	"fmt"
	"log"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"
)

// Intent statuses in which the existing client secret can still be handed
// back to the client. Anything outside this whitelist (processing,
// requires_capture, succeeded, canceled) gets a fresh intent, covered by the
// deterministic idempotency key below.
var reusableIntentStatuses = map[stripe.PaymentIntentStatus]bool{
	stripe.PaymentIntentStatusRequiresPaymentMethod: true,
	stripe.PaymentIntentStatusRequiresConfirmation:  true,
	stripe.PaymentIntentStatusRequiresAction:        true,
}

// CreatePaymentIntent creates (or reuses) the single live charge intent for
// a card order. Split payment with an application fee when the restaurant's
// payout account is completed, direct to the platform otherwise.
func CreatePaymentIntent(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateIntentInput)
	_, user := helper.GetInfoUserFromToken(c)
	if user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
	}

	var order model.Order
	if err := database.DB.Preload("Restaurant").First(&order, input.OrderId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Order not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	if order.UserId != user.ID {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Order belongs to another user", errors.New("NOT_ORDER_OWNER"))
	}
	if order.PaymentMethod != constants.MethodCard {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Order is not a card order", errors.New("WRONG_PAYMENT_METHOD"))
	}
	if order.PaymentStatus == constants.PaymentPaid {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Order is already paid", errors.New("ORDER_ALREADY_PAID"))
	}
	if user.StripeCustomerId == nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No billing profile, save a payment method first", errors.New("NO_STRIPE_CUSTOMER"))
	}

	// Reuse path: one live intent per order.
	if order.StripePaymentIntentId != nil {
		pi, err := helper.StripeClient.RetrievePaymentIntent(*order.StripePaymentIntentId)
		if err != nil {
			log.Printf("failed to retrieve intent %s for order %s: %v", *order.StripePaymentIntentId, order.OrderNumber, err)
		} else if reusableIntentStatuses[pi.Status] {
			return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
				"paymentIntentId": pi.ID,
				"clientSecret":    pi.ClientSecret,
				"reused":          true,
			})
		}
	}

	amountMinor := utils.ToMinorUnits(order.Total)
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(order.Currency)),
		Customer: stripe.String(*user.StripeCustomerId),
	}
	params.AddMetadata("order_id", strconv.FormatUint(uint64(order.ID), 10))
	params.AddMetadata("order_number", order.OrderNumber)
	// Same key for every retry on this order, so a race past the reuse check
	// above still cannot mint a second gateway intent.
	params.IdempotencyKey = stripe.String(fmt.Sprintf("order_%d_intent", order.ID))

	if order.Restaurant.StripeConnectAccountId != nil && order.Restaurant.StripeAccountStatus == constants.StripeAccountCompleted {
		rate := helper.EffectiveCommissionRate(order.Restaurant.CommissionRate)
		fee := helper.CommissionMinorUnits(amountMinor, rate)
		params.ApplicationFeeAmount = stripe.Int64(fee)
		params.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(*order.Restaurant.StripeConnectAccountId),
		}
	}

	pi, err := helper.StripeClient.CreatePaymentIntent(params)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to create payment intent", err)
	}

	if err := database.DB.Model(&order).Update("stripe_payment_intent_id", pi.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"paymentIntentId": pi.ID,
		"clientSecret":    pi.ClientSecret,
		"reused":          false,
	})
}

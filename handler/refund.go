package handler

import (
	"errors"
	"fmt"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"
)

// RefundOrder issues a refund for a paid order. Cash orders are a pure
// ledger write (settlement is out of band); card orders go through the
// gateway and the webhook remains the sole writer of the REFUNDED status.
func RefundOrder(c *fiber.Ctx) error {
	input := c.Locals("input").(model.RefundInput)
	claim, user := helper.GetInfoUserFromToken(c)
	if user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
	}

	var order model.Order
	if err := database.DB.First(&order, input.OrderId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Order not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	if order.PaymentMethod == constants.MethodCash {
		return refundCashOrder(c, claim, &order, input)
	}
	return refundGatewayOrder(c, claim, &order, input)
}

func refundCashOrder(c *fiber.Ctx, claim model.TokenClaim, order *model.Order, input model.RefundInput) error {
	if order.PaymentStatus != constants.PaymentPaid {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Only paid orders can be refunded", errors.New("ORDER_NOT_PAID"))
	}

	// A plain user cannot self-refund cash: money changed hands offline.
	if claim.Role != constants.RoleAdmin && !canManageRestaurant(claim, order.RestaurantId) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Cash refunds require admin or restaurant", errors.New("NOT_ALLOWED"))
	}

	totalMinor := utils.ToMinorUnits(order.Total)
	amountMinor := totalMinor
	if input.Amount != nil {
		amountMinor = *input.Amount
	}
	if amountMinor <= 0 || amountMinor > totalMinor {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Refund amount exceeds order total", errors.New("INVALID_AMOUNT"))
	}

	refundRow := model.Refund{
		OrderId:     order.ID,
		Amount:      float64(amountMinor) / 100,
		Status:      "SUCCEEDED",
		Type:        "cash",
		IsPartial:   amountMinor < totalMinor,
		RequestedBy: claim.UserId,
	}

	tx := database.DB.Begin()
	if err := tx.Model(order).Update("payment_status", constants.PaymentRefunded).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if err := tx.Create(&refundRow).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, refundRow)
}

func refundGatewayOrder(c *fiber.Ctx, claim model.TokenClaim, order *model.Order, input model.RefundInput) error {
	if order.StripePaymentIntentId == nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Order has no payment to refund", errors.New("NO_PAYMENT_INTENT"))
	}
	if order.PaymentStatus != constants.PaymentPaid {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Only paid orders can be refunded", errors.New("ORDER_NOT_PAID"))
	}

	// Admin, the restaurant, or the order's own user.
	if claim.Role != constants.RoleAdmin && claim.UserId != order.UserId && !canManageRestaurant(claim, order.RestaurantId) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, errors.New("NOT_ALLOWED"))
	}

	totalMinor := utils.ToMinorUnits(order.Total)
	if input.Amount != nil && (*input.Amount <= 0 || *input.Amount > totalMinor) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Refund amount exceeds order total", errors.New("INVALID_AMOUNT"))
	}

	pi, err := helper.StripeClient.RetrievePaymentIntent(*order.StripePaymentIntentId)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to retrieve payment intent", err)
	}
	if pi.LatestCharge == nil || pi.LatestCharge.ID == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No captured charge on this payment", errors.New("NO_CHARGE"))
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(pi.ID),
	}
	if input.Amount != nil {
		params.Amount = stripe.Int64(*input.Amount)
	}
	params.AddMetadata("order_id", strconv.FormatUint(uint64(order.ID), 10))
	params.AddMetadata("order_number", order.OrderNumber)
	if input.Reason != "" {
		params.AddMetadata("reason", input.Reason)
	}
	// Unique per call: retrying a failed request is safe, a second deliberate
	// partial refund is not collapsed into the first.
	params.IdempotencyKey = stripe.String(fmt.Sprintf("refund_%d_%s", order.ID, uuid.New().String()))

	ref, err := helper.StripeClient.CreateRefund(params)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Refund failed", err)
	}

	amount := order.Total
	if input.Amount != nil {
		amount = float64(*input.Amount) / 100
	}
	refundRow := model.Refund{
		OrderId:        order.ID,
		Amount:         amount,
		Status:         "PENDING", // confirmed by the refund webhook
		Type:           "gateway",
		StripeRefundId: utils.StringPtr(ref.ID),
		IsPartial:      input.Amount != nil && *input.Amount < totalMinor,
		RequestedBy:    claim.UserId,
	}
	if err := database.DB.Create(&refundRow).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	// Order payment state is deliberately untouched here: the charge.refunded
	// webhook is the only writer of REFUNDED for gateway refunds.
	return utils.SuccessResponse(c, fiber.StatusOK, refundRow)
}

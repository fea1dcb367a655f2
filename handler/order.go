package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"
)

func PlaceOrder(c *fiber.Ctx) error {
	input := c.Locals("input").(model.PlaceOrderInput)
	claim, user := helper.GetInfoUserFromToken(c)
	if claim.UserId == 0 || user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please sign in to order", nil)
	}

	db := database.DB
	tx := db.Begin()

	var restaurant model.Restaurant
	if err := tx.Preload("Mall").First(&restaurant, "id = ? AND status = ?", input.RestaurantId, constants.RestaurantApproved).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Restaurant not found or not accepting orders", err)
	}
	if !restaurant.IsOpen {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Restaurant is closed", errors.New("RESTAURANT_CLOSED"))
	}

	// Lock each menu item so availability and price cannot change under us.
	subtotal := float64(0)
	orderItems := make([]model.OrderItem, 0, len(input.Items))
	for _, it := range input.Items {
		var item model.MenuItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND restaurant_id = ? AND is_available IS true", it.MenuItemId, restaurant.ID).
			First(&item).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Menu item unavailable", err)
		}
		subtotal += item.Price * float64(it.Quantity)
		orderItems = append(orderItems, model.OrderItem{
			MenuItemId: item.ID,
			Name:       item.Name,
			UnitPrice:  item.Price,
			Quantity:   it.Quantity,
		})
	}

	discount := float64(0)
	var promo *model.PromoCode
	if input.PromoCode != nil && *input.PromoCode != "" {
		var err error
		promo, discount, err = resolvePromo(tx, *input.PromoCode, user.ID, restaurant.MallId, subtotal)
		if err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Promo code rejected", err)
		}
	}

	// The fee is restaurant configuration, never client input.
	deliveryFee := restaurant.DeliveryFee

	currency := "USD"
	if restaurant.Mall.ID > 0 {
		var country model.Country
		if err := tx.Joins("JOIN cities ON cities.country_id = countries.id").
			Where("cities.id = ?", restaurant.Mall.CityId).
			First(&country).Error; err == nil {
			currency = country.Currency
		}
	}

	order := model.Order{
		OrderNumber:     helper.GenerateOrderNumber(),
		UserId:          user.ID,
		RestaurantId:    restaurant.ID,
		Items:           orderItems,
		Subtotal:        subtotal,
		Discount:        discount,
		DeliveryFee:     deliveryFee,
		Total:           subtotal - discount + deliveryFee,
		Currency:        currency,
		Status:          constants.OrderPlaced,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   constants.PaymentUnpaid,
		DeliveryAddress: input.DeliveryAddress,
		Note:            input.Note,
	}
	if promo != nil {
		order.PromoCodeId = &promo.ID
	}

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to place order", err)
	}

	if promo != nil {
		usage := model.PromoUsage{
			PromoCodeId:     promo.ID,
			OrderId:         order.ID,
			UserId:          user.ID,
			AppliedAt:       time.Now(),
			DiscountApplied: discount,
		}
		if err := tx.Create(&usage).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, order)
}

func GetMyOrders(c *fiber.Ctx) error {
	_, user := helper.GetInfoUserFromToken(c)
	if user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please sign in", nil)
	}

	var orders model.Orders
	if err := database.DB.
		Preload("Items").
		Preload("Restaurant").
		Preload("Restaurant.Mall").
		Where("user_id = ?", user.ID).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load orders", err)
	}

	response := []map[string]interface{}{}
	for _, order := range orders {
		names := []string{}
		for _, item := range order.Items {
			names = append(names, fmt.Sprintf("%dx %s", item.Quantity, item.Name))
		}
		response = append(response, map[string]interface{}{
			"orderNumber":   order.OrderNumber,
			"restaurant":    order.Restaurant.Name,
			"mall":          order.Restaurant.Mall.Name,
			"items":         names,
			"total":         order.Total,
			"currency":      order.Currency,
			"status":        order.Status,
			"paymentStatus": order.PaymentStatus,
			"placedAt":      order.CreatedAt.Format("02/01/2006 15:04"),
		})
	}

	return utils.SuccessResponse(c, fiber.StatusOK, response)
}

func GetOrderDetail(c *fiber.Ctx) error {
	orderNumber := c.Params("orderNumber")

	var order model.Order
	if err := database.DB.
		Preload("Items").
		Preload("Restaurant").
		Preload("Restaurant.Mall").
		Preload("User").
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Order not found", err)
	}

	claim, _ := helper.GetInfoUserFromToken(c)
	if claim.Role != constants.RoleAdmin && claim.UserId != order.UserId && !canManageRestaurant(claim, order.RestaurantId) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	// Pickup QR shown at the restaurant counter.
	qrBase64 := ""
	qrBytes, err := utils.GenerateQRCode(order.OrderNumber, 400)
	if err != nil {
		log.Printf("failed to build QR for order %s: %v", order.OrderNumber, err)
	} else {
		qrBase64 = "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrBytes)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"order":  order,
		"qrCode": qrBase64,
	})
}

func CancelOrderByUser(c *fiber.Ctx) error {
	orderNumber := c.Params("orderNumber")
	_, user := helper.GetInfoUserFromToken(c)
	if user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please sign in", nil)
	}

	var order model.Order
	if err := database.DB.Where("order_number = ? AND user_id = ?", orderNumber, user.ID).First(&order).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Order not found", err)
	}

	if order.Status != constants.OrderPlaced {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Order already accepted by the restaurant", errors.New("TOO_LATE_TO_CANCEL"))
	}
	if order.PaymentStatus == constants.PaymentPaid {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Paid orders must be refunded instead", errors.New("ORDER_ALREADY_PAID"))
	}

	now := time.Now()
	order.Status = constants.OrderCancelled
	order.CancelledAt = &now
	if err := database.DB.Save(&order).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	BroadcastOrderUpdate(order.ID, fiber.Map{"orderNumber": order.OrderNumber, "status": order.Status})

	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// UpdateOrderStatus advances fulfillment from the restaurant dashboard.
func UpdateOrderStatus(c *fiber.Ctx) error {
	orderNumber := c.Params("orderNumber")
	input := c.Locals("input").(model.UpdateOrderStatusInput)

	var order model.Order
	if err := database.DB.Preload("User").Preload("Restaurant").Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Order not found", err)
	}

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, order.RestaurantId) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	if order.Status == constants.OrderCancelled || order.Status == constants.OrderDelivered {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Order is final", errors.New("ORDER_FINAL"))
	}
	if !validStatusTransition(order.Status, input.Status) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			fmt.Sprintf("Cannot move order from %s to %s", order.Status, input.Status), errors.New("INVALID_TRANSITION"))
	}

	tx := database.DB.Begin()
	order.Status = input.Status
	if input.Status == constants.OrderDelivered {
		now := time.Now()
		order.DeliveredAt = &now
		// Cash orders settle on handover.
		if order.PaymentMethod == constants.MethodCash && order.PaymentStatus == constants.PaymentUnpaid {
			order.PaymentStatus = constants.PaymentPaid
			order.PaidAt = &now
		}
	}
	if err := tx.Save(&order).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	BroadcastOrderUpdate(order.ID, fiber.Map{"orderNumber": order.OrderNumber, "status": order.Status})

	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

var statusFlow = map[string]string{
	constants.OrderPlaced:    constants.OrderAccepted,
	constants.OrderAccepted:  constants.OrderPreparing,
	constants.OrderPreparing: constants.OrderReady,
	constants.OrderReady:     constants.OrderPickedUp,
	constants.OrderPickedUp:  constants.OrderDelivered,
}

func validStatusTransition(from, to string) bool {
	return statusFlow[from] == to
}

// sendOrderReceipt mails the receipt once an order is paid. Called from the
// payment webhook, never inline with a request.
func sendOrderReceipt(order *model.Order) {
	if order.User.Email == "" {
		var user model.User
		if err := database.DB.First(&user, order.UserId).Error; err != nil {
			log.Printf("cannot load user %d for receipt: %v", order.UserId, err)
			return
		}
		order.User = user
	}

	names := []string{}
	for _, item := range order.Items {
		names = append(names, fmt.Sprintf("%dx %s", item.Quantity, item.Name))
	}

	utils.SendOrderReceiptEmail(order.User.Email, utils.OrderReceiptData{
		OrderNumber:    order.OrderNumber,
		RestaurantName: order.Restaurant.Name,
		Items:          strings.Join(names, ", "),
		Total:          order.Total,
		Currency:       order.Currency,
		PaymentMethod:  order.PaymentMethod,
	})
}

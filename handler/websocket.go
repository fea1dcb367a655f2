package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"
	"strconv"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const courierPositionTTL = 15 * time.Minute

func orderChannel(orderId uint) string {
	return fmt.Sprintf("order:%d", orderId)
}

func courierKey(orderId uint) string {
	return fmt.Sprintf("courier:order:%d", orderId)
}

// OrderTrackingConnection streams order status and courier position updates
// to a tracking client.
func OrderTrackingConnection(c *websocket.Conn) {
	id64, _ := strconv.ParseUint(c.Params("id"), 10, 64)
	orderId := uint(id64)

	defer c.Close()

	// Replay current state so the client does not wait for the next update
	var order model.Order
	if err := database.DB.First(&order, orderId).Error; err == nil {
		c.WriteJSON(fiber.Map{
			"orderNumber":   order.OrderNumber,
			"status":        order.Status,
			"paymentStatus": order.PaymentStatus,
		})
	}
	if pos, err := redisClient.Get(context.Background(), courierKey(orderId)).Result(); err == nil {
		c.WriteMessage(websocket.TextMessage, []byte(pos))
	}

	// Each connection holds its own subscription, so it only writes to itself.
	pubsub := redisClient.Subscribe(context.Background(), orderChannel(orderId))
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		if err := c.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
			return
		}
	}
}

// BroadcastOrderUpdate publishes an update on the order's channel; every
// tracking connection, on this instance or another, picks it up there.
func BroadcastOrderUpdate(orderId uint, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := redisClient.Publish(context.Background(), orderChannel(orderId), data).Err(); err != nil {
		log.Printf("failed to publish order %d update: %v", orderId, err)
	}
}

// UpdateCourierPosition stores the courier's latest position and pushes it
// to tracking clients. Positions expire so stale data never replays.
func UpdateCourierPosition(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CourierPositionInput)
	orderId, err := strconv.Atoi(c.Params("id"))
	if err != nil || orderId <= 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid order id", err)
	}

	var order model.Order
	if err := database.DB.First(&order, orderId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND, err)
	}
	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, order.RestaurantId) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}
	if order.Status == constants.OrderDelivered || order.Status == constants.OrderCancelled {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Order is no longer in delivery", nil)
	}

	payload, _ := json.Marshal(fiber.Map{
		"orderNumber": order.OrderNumber,
		"latitude":    input.Latitude,
		"longitude":   input.Longitude,
		"recordedAt":  time.Now().UTC(),
	})

	if err := redisClient.Set(context.Background(), courierKey(order.ID), payload, courierPositionTTL).Err(); err != nil {
		log.Printf("failed to store courier position for order %d: %v", order.ID, err)
	}
	BroadcastOrderUpdate(order.ID, fiber.Map{
		"orderNumber": order.OrderNumber,
		"latitude":    input.Latitude,
		"longitude":   input.Longitude,
	})

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"updated": true})
}

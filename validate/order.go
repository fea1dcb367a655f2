package validate

import (
	"mall_manager/model"

	"github.com/gofiber/fiber/v2"
)

func PlaceOrder() fiber.Handler {
	return body[model.PlaceOrderInput]()
}

func UpdateOrderStatus() fiber.Handler {
	return body[model.UpdateOrderStatusInput]()
}

func CourierPosition() fiber.Handler {
	return body[model.CourierPositionInput]()
}

package validate

import (
	"mall_manager/model"

	"github.com/gofiber/fiber/v2"
)

func CreateIntent() fiber.Handler {
	return body[model.CreateIntentInput]()
}

func RefundOrder() fiber.Handler {
	return body[model.RefundInput]()
}

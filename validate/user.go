package validate

import (
	"errors"
	"mall_manager/database"
	"mall_manager/model"
	"mall_manager/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func RegisterUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.RegisterUserInput](c)
		if input == nil {
			return err
		}

		var existing model.User
		if err := database.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Email already registered", errors.New("DUPLICATE_EMAIL"))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Database error", err)
		}

		c.Locals("input", *input)
		return c.Next()
	}
}

func Login() fiber.Handler {
	return body[model.LoginInput]()
}

func VerifyOtp() fiber.Handler {
	return body[model.VerifyOtpInput]()
}

func EditUser() fiber.Handler {
	return body[model.EditUserInput]()
}

func ChangePassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.UserChangePassword](c)
		if input == nil {
			return err
		}

		if input.NewPassword != input.RepeatPassword {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Passwords do not match", errors.New("PASSWORD_MISMATCH"))
		}

		c.Locals("input", *input)
		return c.Next()
	}
}

func ForgotPassword() fiber.Handler {
	return body[model.ForgotPasswordRequest]()
}

func ResetPassword() fiber.Handler {
	return body[model.ResetPasswordRequest]()
}

func SavePaymentMethod() fiber.Handler {
	return body[model.SavePaymentMethodInput]()
}

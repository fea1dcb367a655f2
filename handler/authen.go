package handler

import (
	"context"
	"errors"
	"fmt"
	"mall_manager/config"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"
	"math/rand"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var redisClient = redis.NewClient(&redis.Options{Addr: config.ConfigOr("REDIS_ADDR", "localhost:6379")})

const otpTTL = 10 * time.Minute

func RegisterUser(c *fiber.Ctx) error {
	input := c.Locals("input").(model.RegisterUserInput)

	hashed, err := helper.HashPassword(input.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	user := model.User{
		UserName: input.UserName,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: hashed,
		Role:     constants.RoleUser,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create user", err)
	}

	code := fmt.Sprintf("%06d", rand.Intn(1000000))
	if err := redisClient.Set(context.Background(), "otp:"+user.Email, code, otpTTL).Err(); err != nil {
		log := fmt.Sprintf("failed to store otp for %s", user.Email)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, log, err)
	}
	utils.SendOtpEmail(user.Email, utils.OtpEmailData{UserName: user.UserName, Code: code})

	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"id":      user.ID,
		"email":   user.Email,
		"message": "Verification code sent",
	})
}

func VerifyOtp(c *fiber.Ctx) error {
	input := c.Locals("input").(model.VerifyOtpInput)

	stored, err := redisClient.Get(context.Background(), "otp:"+input.Email).Result()
	if err == redis.Nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Code expired or not requested", errors.New("otp missing"))
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if stored != input.Code {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid verification code", errors.New("otp mismatch"))
	}

	if err := database.DB.Model(&model.User{}).Where("email = ?", input.Email).Update("email_verified", true).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	redisClient.Del(context.Background(), "otp:"+input.Email)

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"verified": true})
}

func Login(c *fiber.Ctx) error {
	input := c.Locals("input").(model.LoginInput)

	user, err := helper.GetUserByEmail(input.Email)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if user == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Email not registered", errors.New("email not exists"))
	}

	if !helper.CheckPasswordHash(input.Password, user.Password) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", errors.New("password does not match"))
	}

	if !user.IsActive {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Account disabled", errors.New("active false"))
	}

	tokenClaim := model.TokenClaim{
		UserId: user.ID,
		Role:   user.Role,
		Email:  user.Email,
	}
	if user.Role == constants.RoleRestaurant {
		var restaurant model.Restaurant
		if err := database.DB.Select("id").Where("owner_id = ?", user.ID).First(&restaurant).Error; err == nil {
			tokenClaim.RestaurantId = &restaurant.ID
		}
	}

	token, err := helper.GenerateAccessToken(tokenClaim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	refreshToken, err := helper.GenerateRefreshToken(tokenClaim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		HTTPOnly: true,
		SameSite: "None",
		Secure:   false,
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		HTTPOnly: true,
		SameSite: "None",
		Secure:   false,
		Path:     "/",
	})

	return utils.SuccessResponse(c, fiber.StatusOK, model.TokenData{
		AccessToken:  token,
		RefreshToken: refreshToken,
	})
}

func RefreshToken(c *fiber.Ctx) error {
	refresh := c.Cookies("refresh_token")
	if refresh == "" {
		type refreshInput struct {
			RefreshToken string `json:"refreshToken"`
		}
		var input refreshInput
		if err := c.BodyParser(&input); err == nil {
			refresh = input.RefreshToken
		}
	}
	if refresh == "" {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing refresh token", errors.New("no token"))
	}

	token, err := jwt.Parse(refresh, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return helper.JwtSecret, nil
	})
	if err != nil || !token.Valid {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", errors.New("bad claims"))
	}
	userId, _ := claims["userId"].(float64)

	var user model.User
	if err := database.DB.First(&user, "id = ? AND is_active IS true", uint(userId)).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Account not found or disabled", err)
	}

	newToken, err := helper.GenerateAccessToken(model.TokenClaim{UserId: user.ID, Role: user.Role, Email: user.Email})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    newToken,
		HTTPOnly: true,
		SameSite: "None",
		Secure:   false,
		Path:     "/",
	})

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"accessToken": newToken})
}

func Me(c *fiber.Ctx) error {
	_, user := helper.GetInfoUserFromToken(c)
	if user.ID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, user)
}

func ForgotPassword(c *fiber.Ctx) error {
	input := c.Locals("input").(model.ForgotPasswordRequest)

	user, err := helper.GetUserByEmail(input.Email)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	// Do not reveal whether the email exists.
	if user == nil {
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"message": "If the email exists, a reset link was sent"})
	}

	token := uuid.New().String()
	reset := model.PasswordResetToken{
		UserId:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	if err := database.DB.Create(&reset).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	utils.SendOtpEmail(user.Email, utils.OtpEmailData{UserName: user.UserName, Code: token})

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"message": "If the email exists, a reset link was sent"})
}

func ResetPassword(c *fiber.Ctx) error {
	input := c.Locals("input").(model.ResetPasswordRequest)

	var reset model.PasswordResetToken
	if err := database.DB.Where("token = ? AND expires_at > ?", input.Token, time.Now()).First(&reset).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid or expired token", err)
	}

	hashed, err := helper.HashPassword(input.NewPassword)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	tx := database.DB.Begin()
	if err := tx.Model(&model.User{}).Where("id = ?", reset.UserId).Update("password", hashed).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if err := tx.Delete(&reset).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"message": "Password updated"})
}

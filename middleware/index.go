package middleware

import (
	"errors"
	"mall_manager/constants"
	"mall_manager/helper"
	"mall_manager/utils"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("access_token")

		if token == "" {
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if token == "" {
			return utils.ErrorResponse(c, 401, "Missing token", errors.New("no token"))
		}

		jwtToken, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !jwtToken.Valid {
			return utils.ErrorResponse(c, 401, "Invalid token", err)
		}

		c.Locals("user", jwtToken)
		return c.Next()
	}
}

func OptionalJWT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")

		if authHeader == "" {
			c.Locals("user", nil)
			return c.Next()
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			c.Locals("user", nil)
			return c.Next()
		}

		c.Locals("user", token)
		return c.Next()
	}
}

func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, user := helper.GetInfoUserFromToken(c)

		if claim.UserId == 0 {
			c.Locals("userId", uint(0))
			return c.Next()
		}

		c.Locals("userId", claim.UserId)
		c.Locals("claim", claim)

		if user.ID > 0 {
			c.Locals("currentUser", &user)
		}

		return c.Next()
	}
}

// RequireRole gates a route to the listed roles. Must run after Protected.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, _ := helper.GetInfoUserFromToken(c)
		if claim.UserId == 0 {
			return utils.ErrorResponse(c, 401, constants.UNAUTHORIZED, errors.New("no authenticated user"))
		}
		for _, role := range roles {
			if claim.Role == role {
				c.Locals("claim", claim)
				return c.Next()
			}
		}
		return utils.ErrorResponse(c, 403, constants.FORBIDDEN, nil)
	}
}

package helper

import (
	"errors"
	"log"
	"mall_manager/database"
	"mall_manager/model"
	"net/mail"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var JwtSecret = []byte(os.Getenv("JWT_SECRET"))

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func GetUserByEmail(e string) (*model.User, error) {
	db := database.DB
	var user model.User
	if err := db.Where(&model.User{Email: e}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func ValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func GenerateAccessToken(tokenClaim model.TokenClaim) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["userId"] = tokenClaim.UserId
	claims["role"] = tokenClaim.Role
	claims["email"] = tokenClaim.Email
	if tokenClaim.RestaurantId != nil {
		claims["restaurantId"] = *tokenClaim.RestaurantId
	}
	claims["exp"] = time.Now().Add(time.Minute * 60).Unix()

	t, err := token.SignedString(JwtSecret)
	return t, err
}

func GenerateRefreshToken(tokenClaim model.TokenClaim) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["userId"] = tokenClaim.UserId
	claims["role"] = tokenClaim.Role
	claims["exp"] = time.Now().Add(time.Hour * 24 * 7).Unix()

	t, err := token.SignedString(JwtSecret)
	return t, err
}

// GetInfoUserFromToken reads the parsed JWT out of Locals. A zero UserId
// means guest.
func GetInfoUserFromToken(c *fiber.Ctx) (model.TokenClaim, model.User) {
	var emptyUser model.User
	var guestClaim = model.TokenClaim{
		UserId: 0,
		Role:   "",
	}

	u := c.Locals("user")
	if u == nil {
		return guestClaim, emptyUser
	}

	userToken, ok := u.(*jwt.Token)
	if !ok || userToken == nil {
		return guestClaim, emptyUser
	}

	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		return guestClaim, emptyUser
	}

	userIdFloat := float64(0)
	if uid, ok := claims["userId"].(float64); ok {
		userIdFloat = uid
	}

	if userIdFloat == 0 {
		return guestClaim, emptyUser
	}

	claim := model.TokenClaim{
		UserId: uint(userIdFloat),
	}
	claim.Role, _ = claims["role"].(string)
	claim.Email, _ = claims["email"].(string)
	if rid, ok := claims["restaurantId"].(float64); ok && rid > 0 {
		r := uint(rid)
		claim.RestaurantId = &r
	}

	var user model.User
	if err := database.DB.First(&user, "id = ? AND is_active = ?", claim.UserId, true).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("failed to load user %d from token: %v", claim.UserId, err)
		}
		return claim, emptyUser
	}

	return claim, user
}

package handler

import (
	"errors"
	"log"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

func CreateRestaurant(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateRestaurantInput)

	var restaurant model.Restaurant
	copier.Copy(&restaurant, &input)
	restaurant.Status = constants.RestaurantPending
	restaurant.StripeAccountStatus = constants.StripeAccountNone

	tx := database.DB.Begin()
	restaurant.Slug = helper.GenerateUniqueRestaurantSlug(tx, input.Name)
	if err := tx.Create(&restaurant).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create restaurant", err)
	}
	// The owner account becomes a restaurant login.
	if err := tx.Model(&model.User{}).Where("id = ?", input.OwnerId).Update("role", constants.RoleRestaurant).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, restaurant)
}

func GetRestaurants(c *fiber.Ctx) error {
	var filter model.FilterRestaurant
	if err := c.QueryParser(&filter); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
	}

	query := database.DB.Model(&model.Restaurant{}).Preload("Mall")
	if filter.SearchKey != "" {
		like := "%" + filter.SearchKey + "%"
		query = query.Where("name ILIKE ? OR cuisine ILIKE ?", like, like)
	}
	if filter.MallId != nil {
		query = query.Where("mall_id = ?", *filter.MallId)
	}
	if filter.Cuisine != "" {
		query = query.Where("cuisine = ?", filter.Cuisine)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OpenNow != nil && *filter.OpenNow {
		query = query.Where("is_open IS true")
	}

	var totalCount int64
	query.Count(&totalCount)

	var restaurants model.Restaurants
	if err := utils.ApplyPagination(query, filter.Limit, filter.Page).Order("name").Find(&restaurants).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       restaurants,
		Limit:      filter.Limit,
		Page:       filter.Page,
		TotalCount: totalCount,
	})
}

// SearchRestaurants is the public search across approved restaurants.
func SearchRestaurants(c *fiber.Ctx) error {
	search := c.Query("q")
	if search == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Missing search query", errors.New("q required"))
	}

	like := "%" + search + "%"
	var restaurants model.Restaurants
	if err := database.DB.
		Preload("Mall").
		Where("status = ? AND (name ILIKE ? OR cuisine ILIKE ? OR description ILIKE ?)", constants.RestaurantApproved, like, like, like).
		Limit(50).
		Find(&restaurants).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, restaurants)
}

func GetRestaurantDetail(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var restaurant model.Restaurant
	if err := database.DB.
		Preload("Mall").
		Preload("BusinessHours").
		Preload("Gallery").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Categories.Items", "is_available IS true").
		Where("slug = ? AND status = ?", slug, constants.RestaurantApproved).
		First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Restaurant not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"restaurant": restaurant,
		"openNow":    helper.IsOpenAt(restaurant.BusinessHours, time.Now()),
	})
}

func EditRestaurant(c *fiber.Ctx) error {
	restaurantId := c.Locals("inputId").(int)
	input := c.Locals("input").(model.EditRestaurantInput)

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, uint(restaurantId)) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	var restaurant model.Restaurant
	if err := database.DB.First(&restaurant, restaurantId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Restaurant not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	copier.CopyWithOption(&restaurant, &input, copier.Option{IgnoreEmpty: true})
	if input.Name != nil && *input.Name != "" && *input.Name != restaurant.Name {
		restaurant.Slug = helper.GenerateUniqueRestaurantSlug(database.DB, *input.Name)
	}

	if err := database.DB.Save(&restaurant).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update restaurant", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, restaurant)
}

// ModerateRestaurant lets an admin approve, reject or disable a listing.
func ModerateRestaurant(c *fiber.Ctx) error {
	restaurantId := c.Locals("inputId").(int)
	input := c.Locals("input").(model.ModerateRestaurantInput)

	result := database.DB.Model(&model.Restaurant{}).Where("id = ?", restaurantId).Update("status", input.Status)
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Restaurant not found", nil)
	}

	if input.Status != constants.RestaurantApproved {
		database.DB.Model(&model.Restaurant{}).Where("id = ?", restaurantId).Update("is_open", false)
	}
	log.Printf("restaurant %d moderated to %s (%s)", restaurantId, input.Status, input.Reason)

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"id": restaurantId, "status": input.Status})
}

func SetCommissionRate(c *fiber.Ctx) error {
	restaurantId := c.Locals("inputId").(int)
	input := c.Locals("input").(model.SetCommissionInput)

	result := database.DB.Model(&model.Restaurant{}).Where("id = ?", restaurantId).Update("commission_rate", input.CommissionRate)
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Restaurant not found", nil)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"id": restaurantId, "commissionRate": input.CommissionRate})
}

// SetBusinessHours replaces the weekly schedule in one transaction.
func SetBusinessHours(c *fiber.Ctx) error {
	restaurantId, err := c.ParamsInt("restaurantId")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}
	input := c.Locals("input").(model.SetBusinessHoursInput)

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, uint(restaurantId)) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	var restaurant model.Restaurant
	if err := database.DB.First(&restaurant, restaurantId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Restaurant not found", err)
	}

	tx := database.DB.Begin()
	if err := tx.Where("restaurant_id = ?", restaurant.ID).Delete(&model.BusinessHour{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	for _, h := range input.Hours {
		hour := model.BusinessHour{
			RestaurantId: restaurant.ID,
			Weekday:      h.Weekday,
			OpensAt:      h.OpensAt,
			ClosesAt:     h.ClosesAt,
			Closed:       h.Closed,
		}
		if err := tx.Create(&hour).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, input.Hours)
}

// canManageRestaurant allows admins and the restaurant's own login.
func canManageRestaurant(claim model.TokenClaim, restaurantId uint) bool {
	if claim.Role == constants.RoleAdmin {
		return true
	}
	if claim.Role == constants.RoleRestaurant && claim.RestaurantId != nil && *claim.RestaurantId == restaurantId {
		return true
	}
	// fall back to the owner column for restaurant users without the claim set
	if claim.UserId > 0 {
		var restaurant model.Restaurant
		if err := database.DB.Select("owner_id").First(&restaurant, restaurantId).Error; err == nil {
			return restaurant.OwnerId == claim.UserId
		}
	}
	return false
}

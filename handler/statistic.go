package handler

import (
	"errors"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"
	"time"

	"github.com/gofiber/fiber/v2"
)

func GetAdminStats(c *fiber.Ctx) error {
	claim, _ := helper.GetInfoUserFromToken(c)
	if claim.Role != constants.RoleAdmin {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, errors.New("not admin"))
	}

	db := database.DB

	type Stats struct {
		Malls       int64 `json:"malls"`
		Restaurants int64 `json:"restaurants"`
		Users       int64 `json:"users"`

		TodayOrders   int64   `json:"todayOrders"`
		TodayRevenue  float64 `json:"todayRevenue"`
		PendingOrders int64   `json:"pendingOrders"`
		OrdersGrowth  float64 `json:"ordersGrowth"`  // %
		RevenueGrowth float64 `json:"revenueGrowth"` // %
	}

	var stats Stats
	today := time.Now().In(time.Local)
	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	todayEnd := time.Date(today.Year(), today.Month(), today.Day(), 23, 59, 59, 0, today.Location())

	db.Model(&model.Mall{}).Count(&stats.Malls)
	db.Model(&model.Restaurant{}).Where("status = ?", constants.RestaurantApproved).Count(&stats.Restaurants)
	db.Model(&model.User{}).Where("role = ?", constants.RoleUser).Count(&stats.Users)

	db.Model(&model.Order{}).
		Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).
		Where("status <> ?", constants.OrderCancelled).
		Count(&stats.TodayOrders)

	// Revenue counts paid orders only
	db.Raw(`
        SELECT COALESCE(SUM(total), 0)
        FROM orders
        WHERE payment_status = ?
          AND created_at BETWEEN ? AND ?
    `, constants.PaymentPaid, todayStart, todayEnd).Scan(&stats.TodayRevenue)

	db.Model(&model.Order{}).
		Where("status IN ?", []string{constants.OrderPlaced, constants.OrderAccepted, constants.OrderPreparing}).
		Count(&stats.PendingOrders)

	yesterdayStart := todayStart.AddDate(0, 0, -1)
	yesterdayEnd := todayEnd.AddDate(0, 0, -1)

	var yesterdayOrders int64
	var yesterdayRevenue float64

	db.Model(&model.Order{}).
		Where("created_at BETWEEN ? AND ?", yesterdayStart, yesterdayEnd).
		Where("status <> ?", constants.OrderCancelled).
		Count(&yesterdayOrders)

	db.Raw(`
        SELECT COALESCE(SUM(total), 0)
        FROM orders
        WHERE payment_status = ?
          AND created_at BETWEEN ? AND ?
    `, constants.PaymentPaid, yesterdayStart, yesterdayEnd).Scan(&yesterdayRevenue)

	stats.OrdersGrowth = utils.CalculateGrowth(float64(stats.TodayOrders), float64(yesterdayOrders))
	stats.RevenueGrowth = utils.CalculateGrowth(stats.TodayRevenue, yesterdayRevenue)

	return utils.SuccessResponse(c, fiber.StatusOK, stats)
}

// GetRestaurantStats gives an owner the same dashboard scoped to one
// restaurant.
func GetRestaurantStats(c *fiber.Ctx) error {
	claim, _ := helper.GetInfoUserFromToken(c)
	if claim.UserId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, errors.New("no claim"))
	}
	restaurantId := uint(c.Locals("inputId").(int))
	if !canManageRestaurant(claim, restaurantId) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, errors.New("not restaurant staff"))
	}

	db := database.DB

	var stats struct {
		TodayOrders   int64   `json:"todayOrders"`
		TodayRevenue  float64 `json:"todayRevenue"`
		PendingOrders int64   `json:"pendingOrders"`
		MenuItems     int64   `json:"menuItems"`
	}

	today := time.Now().In(time.Local)
	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	db.Model(&model.Order{}).
		Where("restaurant_id = ? AND created_at >= ?", restaurantId, todayStart).
		Where("status <> ?", constants.OrderCancelled).
		Count(&stats.TodayOrders)

	db.Raw(`
        SELECT COALESCE(SUM(total), 0)
        FROM orders
        WHERE restaurant_id = ?
          AND payment_status = ?
          AND created_at >= ?
    `, restaurantId, constants.PaymentPaid, todayStart).Scan(&stats.TodayRevenue)

	db.Model(&model.Order{}).
		Where("restaurant_id = ?", restaurantId).
		Where("status IN ?", []string{constants.OrderPlaced, constants.OrderAccepted, constants.OrderPreparing}).
		Count(&stats.PendingOrders)

	db.Model(&model.MenuItem{}).Where("restaurant_id = ?", restaurantId).Count(&stats.MenuItems)

	return utils.SuccessResponse(c, fiber.StatusOK, stats)
}

package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMenuItem(t *testing.T, restaurant *model.Restaurant, name string, price float64) *model.MenuItem {
	t.Helper()
	category := model.MenuCategory{RestaurantId: restaurant.ID, Name: "Mains"}
	require.NoError(t, database.DB.Create(&category).Error)
	item := model.MenuItem{
		CategoryId:   category.ID,
		RestaurantId: restaurant.ID,
		Name:         name,
		Price:        price,
		IsAvailable:  true,
	}
	require.NoError(t, database.DB.Create(&item).Error)
	return &item
}

func TestPlaceOrderComputesTotalsAndCurrency(t *testing.T) {
	app, _ := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	shawarma := createMenuItem(t, restaurant, "Chicken Shawarma", 18.50)
	fries := createMenuItem(t, restaurant, "Fries", 8.00)
	customer := createUser(t, "customer@example.com", constants.RoleUser)

	body := map[string]any{
		"restaurantId": restaurant.ID,
		"items": []map[string]any{
			{"menuItemId": shawarma.ID, "quantity": 2},
			{"menuItemId": fries.ID, "quantity": 1},
		},
		"paymentMethod":   constants.MethodCard,
		"deliveryAddress": "Apt 4, Marina Tower",
	}
	status, envelope := doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/order", body, customer, nil))
	require.Equal(t, http.StatusCreated, status)
	data := dataOf(t, envelope)
	assert.Equal(t, 45.0, data["subtotal"])
	assert.Equal(t, 45.0, data["total"])
	// currency follows the mall's country
	assert.Equal(t, "AED", data["currency"])
	assert.Equal(t, constants.OrderPlaced, data["status"])
	assert.Equal(t, constants.PaymentUnpaid, data["paymentStatus"])

	items, ok := data["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestPlaceOrderAppliesPromo(t *testing.T) {
	app, _ := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	createMenuItem(t, restaurant, "Family Platter", 100.00)
	customer := createUser(t, "customer@example.com", constants.RoleUser)

	promo := model.PromoCode{
		Code:          "WELCOME10",
		Name:          "Welcome",
		DiscountType:  "percentage",
		DiscountValue: 10,
		StartDate:     time.Now().Add(-time.Hour),
		EndDate:       time.Now().Add(24 * time.Hour),
		MaxPerUser:    1,
		Status:        "active",
	}
	require.NoError(t, database.DB.Create(&promo).Error)

	var item model.MenuItem
	require.NoError(t, database.DB.Where("restaurant_id = ?", restaurant.ID).First(&item).Error)

	body := map[string]any{
		"restaurantId": restaurant.ID,
		"items": []map[string]any{
			{"menuItemId": item.ID, "quantity": 1},
		},
		"paymentMethod":   constants.MethodCash,
		"deliveryAddress": "Villa 12",
		"promoCode":       "WELCOME10",
	}
	status, envelope := doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/order", body, customer, nil))
	require.Equal(t, http.StatusCreated, status)
	data := dataOf(t, envelope)
	assert.Equal(t, 10.0, data["discount"])
	assert.Equal(t, 90.0, data["total"])

	var usages int64
	require.NoError(t, database.DB.Model(&model.PromoUsage{}).Where("promo_code_id = ?", promo.ID).Count(&usages).Error)
	assert.EqualValues(t, 1, usages)

	// second use exceeds maxPerUser
	status, _ = doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/order", body, customer, nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPlaceOrderRejectsClosedRestaurant(t *testing.T) {
	app, _ := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	item := createMenuItem(t, restaurant, "Fries", 8.00)
	require.NoError(t, database.DB.Model(restaurant).Update("is_open", false).Error)
	customer := createUser(t, "customer@example.com", constants.RoleUser)

	body := map[string]any{
		"restaurantId": restaurant.ID,
		"items": []map[string]any{
			{"menuItemId": item.ID, "quantity": 1},
		},
		"paymentMethod":   constants.MethodCash,
		"deliveryAddress": "Villa 12",
	}
	status, _ := doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/order", body, customer, nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateOrderStatusFollowsFlow(t *testing.T) {
	app, _ := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	order := createOrder(t, customer, restaurant, constants.MethodCash, 30.00)
	url := fmt.Sprintf("/api/v1/order/%s/status", order.OrderNumber)

	// PLACED cannot jump straight to READY
	status, _ := doRequest(t, app, authedRequest(t, http.MethodPatch, url, map[string]any{"status": constants.OrderReady}, owner, &restaurant.ID))
	assert.Equal(t, http.StatusBadRequest, status)

	for _, next := range []string{
		constants.OrderAccepted, constants.OrderPreparing, constants.OrderReady,
		constants.OrderPickedUp, constants.OrderDelivered,
	} {
		status, _ = doRequest(t, app, authedRequest(t, http.MethodPatch, url, map[string]any{"status": next}, owner, &restaurant.ID))
		require.Equal(t, http.StatusOK, status, "transition to %s", next)
	}

	// cash settles on delivery
	var stored model.Order
	require.NoError(t, database.DB.First(&stored, order.ID).Error)
	assert.Equal(t, constants.OrderDelivered, stored.Status)
	assert.Equal(t, constants.PaymentPaid, stored.PaymentStatus)
	assert.NotNil(t, stored.DeliveredAt)

	// delivered is final
	status, _ = doRequest(t, app, authedRequest(t, http.MethodPatch, url, map[string]any{"status": constants.OrderAccepted}, owner, &restaurant.ID))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateOrderStatusForbiddenForCustomer(t *testing.T) {
	app, _ := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	order := createOrder(t, customer, restaurant, constants.MethodCash, 30.00)

	url := fmt.Sprintf("/api/v1/order/%s/status", order.OrderNumber)
	status, _ := doRequest(t, app, authedRequest(t, http.MethodPatch, url, map[string]any{"status": constants.OrderAccepted}, customer, nil))
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCancelOrderByUserRules(t *testing.T) {
	app, _ := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)

	order := createOrder(t, customer, restaurant, constants.MethodCard, 30.00)
	url := fmt.Sprintf("/api/v1/order/%s/cancel", order.OrderNumber)
	status, _ := doRequest(t, app, authedRequest(t, http.MethodPost, url, nil, customer, nil))
	require.Equal(t, http.StatusOK, status)

	var stored model.Order
	require.NoError(t, database.DB.First(&stored, order.ID).Error)
	assert.Equal(t, constants.OrderCancelled, stored.Status)
	assert.NotNil(t, stored.CancelledAt)

	// paid orders go through the refund flow instead
	paid := createOrder(t, customer, restaurant, constants.MethodCard, 30.00)
	markPaid(t, paid)
	status, _ = doRequest(t, app, authedRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/order/%s/cancel", paid.OrderNumber), nil, customer, nil))
	assert.Equal(t, http.StatusBadRequest, status)

	// accepted orders are too late to cancel
	accepted := createOrder(t, customer, restaurant, constants.MethodCard, 30.00)
	require.NoError(t, database.DB.Model(accepted).Update("status", constants.OrderAccepted).Error)
	status, _ = doRequest(t, app, authedRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/order/%s/cancel", accepted.OrderNumber), nil, customer, nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPlaceOrderUsesRestaurantDeliveryFee(t *testing.T) {
	app, _ := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	require.NoError(t, database.DB.Model(restaurant).Update("delivery_fee", 7.50).Error)
	createMenuItem(t, restaurant, "Poke Bowl", 40.00)
	customer := createUser(t, "customer@example.com", constants.RoleUser)

	var item model.MenuItem
	require.NoError(t, database.DB.Where("restaurant_id = ?", restaurant.ID).First(&item).Error)

	body := map[string]any{
		"restaurantId": restaurant.ID,
		"items": []map[string]any{
			{"menuItemId": item.ID, "quantity": 1},
		},
		"paymentMethod":   constants.MethodCard,
		"deliveryAddress": "Apt 4, Marina Tower",
	}
	// A fee smuggled into the query string must be ignored.
	url := "/api/v1/order?deliveryFee=999"
	status, envelope := doRequest(t, app, authedRequest(t, http.MethodPost, url, body, customer, nil))
	require.Equal(t, http.StatusCreated, status)
	data := dataOf(t, envelope)
	assert.Equal(t, 7.5, data["deliveryFee"])
	assert.Equal(t, 47.5, data["total"])
}

func TestUpdateCourierPositionScopedToOwningRestaurant(t *testing.T) {
	app, _ := setupTest(t)
	ownerA := createUser(t, "owner-a@example.com", constants.RoleRestaurant)
	restaurantA := createRestaurant(t, ownerA)
	ownerB := createUser(t, "owner-b@example.com", constants.RoleRestaurant)
	restaurantB := createRestaurant(t, ownerB)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	order := createOrder(t, customer, restaurantA, constants.MethodCash, 30.00)
	require.NoError(t, database.DB.Model(order).Update("status", constants.OrderAccepted).Error)

	body := map[string]any{"latitude": 25.2048, "longitude": 55.2708}
	url := fmt.Sprintf("/api/v1/order/%d/courier-position", order.ID)

	status, _ := doRequest(t, app, authedRequest(t, http.MethodPost, url, body, ownerB, &restaurantB.ID))
	assert.Equal(t, http.StatusForbidden, status, "a stranger restaurant must not steer the courier feed")

	status, _ = doRequest(t, app, authedRequest(t, http.MethodPost, url, body, ownerA, &restaurantA.ID))
	assert.Equal(t, http.StatusOK, status)
}

package handler_test

import (
	"net/http"
	"testing"

	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
)

func withBillingProfile(t *testing.T, user *model.User) {
	t.Helper()
	require.NoError(t, database.DB.Model(user).Update("stripe_customer_id", "cus_test1").Error)
	user.StripeCustomerId = stripe.String("cus_test1")
}

func TestCreatePaymentIntentDirect(t *testing.T) {
	app, gw := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	withBillingProfile(t, customer)
	order := createOrder(t, customer, restaurant, constants.MethodCard, 52.50)

	body := map[string]any{"orderId": order.ID}
	status, envelope := doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/payment/intent", body, customer, nil))
	require.Equal(t, http.StatusOK, status)
	data := dataOf(t, envelope)
	assert.Equal(t, "pi_test1", data["paymentIntentId"])
	assert.Equal(t, "pi_test1_secret", data["clientSecret"])
	assert.Equal(t, false, data["reused"])

	params := gw.lastIntentParams
	require.NotNil(t, params)
	assert.Equal(t, int64(5250), *params.Amount)
	assert.Equal(t, "aed", *params.Currency)
	assert.Equal(t, "cus_test1", *params.Customer)
	require.NotNil(t, params.IdempotencyKey)
	assert.Contains(t, *params.IdempotencyKey, "_intent")
	assert.Nil(t, params.ApplicationFeeAmount)
	assert.Nil(t, params.TransferData)

	var stored model.Order
	require.NoError(t, database.DB.First(&stored, order.ID).Error)
	require.NotNil(t, stored.StripePaymentIntentId)
	assert.Equal(t, "pi_test1", *stored.StripePaymentIntentId)
}

func TestCreatePaymentIntentReusesLiveIntent(t *testing.T) {
	app, gw := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	withBillingProfile(t, customer)
	order := createOrder(t, customer, restaurant, constants.MethodCard, 30.00)

	body := map[string]any{"orderId": order.ID}
	status, first := doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/payment/intent", body, customer, nil))
	require.Equal(t, http.StatusOK, status)

	// Retry while the intent is still collectible: same secret, no new intent.
	status, second := doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/payment/intent", body, customer, nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, dataOf(t, first)["clientSecret"], dataOf(t, second)["clientSecret"])
	assert.Equal(t, true, dataOf(t, second)["reused"])
	assert.Equal(t, 1, gw.createIntentCalls)
}

func TestCreatePaymentIntentReplacesDeadIntent(t *testing.T) {
	app, gw := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	withBillingProfile(t, customer)
	order := createOrder(t, customer, restaurant, constants.MethodCard, 30.00)
	require.NoError(t, database.DB.Model(order).Update("stripe_payment_intent_id", "pi_dead").Error)

	gw.retrieveIntent = func(id string) (*stripe.PaymentIntent, error) {
		return &stripe.PaymentIntent{ID: id, ClientSecret: id + "_secret", Status: stripe.PaymentIntentStatusCanceled}, nil
	}

	body := map[string]any{"orderId": order.ID}
	status, envelope := doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/payment/intent", body, customer, nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, dataOf(t, envelope)["reused"])
	assert.Equal(t, 1, gw.createIntentCalls)
}

func TestCreatePaymentIntentSplitsWithCommission(t *testing.T) {
	app, gw := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	require.NoError(t, database.DB.Model(restaurant).Updates(map[string]interface{}{
		"stripe_connect_account_id": "acct_done1",
		"stripe_account_status":     constants.StripeAccountCompleted,
		"commission_rate":           0.15,
	}).Error)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	withBillingProfile(t, customer)
	order := createOrder(t, customer, restaurant, constants.MethodCard, 100.00)

	body := map[string]any{"orderId": order.ID}
	status, _ := doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/payment/intent", body, customer, nil))
	require.Equal(t, http.StatusOK, status)

	params := gw.lastIntentParams
	require.NotNil(t, params)
	require.NotNil(t, params.ApplicationFeeAmount)
	assert.Equal(t, int64(1500), *params.ApplicationFeeAmount)
	require.NotNil(t, params.TransferData)
	assert.Equal(t, "acct_done1", *params.TransferData.Destination)
}

func TestCreatePaymentIntentStaysDirectWhileOnboardingIncomplete(t *testing.T) {
	app, gw := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	require.NoError(t, database.DB.Model(restaurant).Updates(map[string]interface{}{
		"stripe_connect_account_id": "acct_pending1",
		"stripe_account_status":     constants.StripeAccountPending,
	}).Error)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	withBillingProfile(t, customer)
	order := createOrder(t, customer, restaurant, constants.MethodCard, 40.00)

	body := map[string]any{"orderId": order.ID}
	status, _ := doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/payment/intent", body, customer, nil))
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, gw.lastIntentParams)
	assert.Nil(t, gw.lastIntentParams.ApplicationFeeAmount)
	assert.Nil(t, gw.lastIntentParams.TransferData)
}

func TestCreatePaymentIntentRejections(t *testing.T) {
	app, gw := setupTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	withBillingProfile(t, customer)
	other := createUser(t, "other@example.com", constants.RoleUser)

	cashOrder := createOrder(t, customer, restaurant, constants.MethodCash, 20.00)
	status, _ := doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/payment/intent", map[string]any{"orderId": cashOrder.ID}, customer, nil))
	assert.Equal(t, http.StatusBadRequest, status, "cash order cannot get an intent")

	paidOrder := createOrder(t, customer, restaurant, constants.MethodCard, 20.00)
	require.NoError(t, database.DB.Model(paidOrder).Update("payment_status", constants.PaymentPaid).Error)
	status, _ = doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/payment/intent", map[string]any{"orderId": paidOrder.ID}, customer, nil))
	assert.Equal(t, http.StatusBadRequest, status, "paid order cannot get an intent")

	cardOrder := createOrder(t, customer, restaurant, constants.MethodCard, 20.00)
	status, _ = doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/payment/intent", map[string]any{"orderId": cardOrder.ID}, other, nil))
	assert.Equal(t, http.StatusForbidden, status, "only the order owner can pay")

	noProfile := createOrder(t, other, restaurant, constants.MethodCard, 20.00)
	status, _ = doRequest(t, app, authedRequest(t, http.MethodPost, "/api/v1/payment/intent", map[string]any{"orderId": noProfile.ID}, other, nil))
	assert.Equal(t, http.StatusBadRequest, status, "saved billing profile required")

	assert.Equal(t, 0, gw.createIntentCalls)
}

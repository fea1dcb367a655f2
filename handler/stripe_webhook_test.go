package handler_test

import (
	"net/http"
	"strconv"
	"testing"

	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	paymentSecret = "whsec_pay_test"
	accountSecret = "whsec_acct_test"
)

func setupWebhookTest(t *testing.T) (*fiber.App, *fakeGateway) {
	t.Helper()
	t.Setenv("STRIPE_PAYMENT_WEBHOOK_SECRET", paymentSecret)
	t.Setenv("STRIPE_ACCOUNT_WEBHOOK_SECRET", accountSecret)
	return setupTest(t)
}

func intentObject(orderId uint, intentId string) map[string]any {
	return map[string]any{
		"id":       intentId,
		"object":   "payment_intent",
		"metadata": map[string]string{"order_id": strconv.FormatUint(uint64(orderId), 10)},
	}
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	app, _ := setupWebhookTest(t)
	payload := eventPayload(t, "evt_bad1", "payment_intent.succeeded", intentObject(1, "pi_x"))

	req := webhookRequest(t, "/webhooks/stripe/payments", "whsec_wrong", payload)
	status, _ := doRequest(t, app, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.EqualValues(t, 0, countStripeEvents(t, "evt_bad1"))
}

func TestPaymentSucceededMarksPaidExactlyOnce(t *testing.T) {
	app, _ := setupWebhookTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	order := createOrder(t, customer, restaurant, constants.MethodCard, 60.00)
	require.NoError(t, database.DB.Model(order).Update("stripe_payment_intent_id", "pi_x1").Error)

	payload := eventPayload(t, "evt_pay1", "payment_intent.succeeded", intentObject(order.ID, "pi_x1"))
	status, _ := doRequest(t, app, webhookRequest(t, "/webhooks/stripe/payments", paymentSecret, payload))
	require.Equal(t, http.StatusOK, status)

	var stored model.Order
	require.NoError(t, database.DB.First(&stored, order.ID).Error)
	assert.Equal(t, constants.PaymentPaid, stored.PaymentStatus)
	require.NotNil(t, stored.PaidAt)
	firstPaidAt := *stored.PaidAt

	// Redelivery of the same event id is acknowledged and changes nothing.
	status, envelope := doRequest(t, app, webhookRequest(t, "/webhooks/stripe/payments", paymentSecret, payload))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, dataOf(t, envelope)["duplicate"])

	require.NoError(t, database.DB.First(&stored, order.ID).Error)
	require.NotNil(t, stored.PaidAt)
	assert.Equal(t, firstPaidAt.Unix(), stored.PaidAt.Unix())
	assert.EqualValues(t, 1, countStripeEvents(t, "evt_pay1"))
}

func TestPaymentSucceededOnPaidOrderRecordsEventOnly(t *testing.T) {
	app, _ := setupWebhookTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	order := createOrder(t, customer, restaurant, constants.MethodCard, 60.00)
	markPaid(t, order)

	payload := eventPayload(t, "evt_pay2", "payment_intent.succeeded", intentObject(order.ID, "pi_x1"))
	status, _ := doRequest(t, app, webhookRequest(t, "/webhooks/stripe/payments", paymentSecret, payload))
	require.Equal(t, http.StatusOK, status)

	var stored model.Order
	require.NoError(t, database.DB.First(&stored, order.ID).Error)
	assert.Nil(t, stored.PaidAt, "already-paid order must not be touched again")
	assert.EqualValues(t, 1, countStripeEvents(t, "evt_pay2"))
}

func TestPaymentFailedMarksFailed(t *testing.T) {
	app, _ := setupWebhookTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	order := createOrder(t, customer, restaurant, constants.MethodCard, 60.00)

	payload := eventPayload(t, "evt_fail1", "payment_intent.payment_failed", intentObject(order.ID, "pi_x1"))
	status, _ := doRequest(t, app, webhookRequest(t, "/webhooks/stripe/payments", paymentSecret, payload))
	require.Equal(t, http.StatusOK, status)

	var stored model.Order
	require.NoError(t, database.DB.First(&stored, order.ID).Error)
	assert.Equal(t, constants.PaymentFailed, stored.PaymentStatus)
}

func TestPaymentWebhookAcksUnknownOrder(t *testing.T) {
	app, _ := setupWebhookTest(t)

	payload := eventPayload(t, "evt_lost1", "payment_intent.succeeded", intentObject(4242, "pi_none"))
	status, _ := doRequest(t, app, webhookRequest(t, "/webhooks/stripe/payments", paymentSecret, payload))
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, countStripeEvents(t, "evt_lost1"))
}

func TestPaymentWebhookIgnoresOtherEventTypes(t *testing.T) {
	app, _ := setupWebhookTest(t)

	payload := eventPayload(t, "evt_misc1", "customer.created", map[string]any{"id": "cus_x", "object": "customer"})
	status, _ := doRequest(t, app, webhookRequest(t, "/webhooks/stripe/payments", paymentSecret, payload))
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, countStripeEvents(t, "evt_misc1"))
}

func TestChargeRefundedFlipsOrderAndRefundRow(t *testing.T) {
	app, _ := setupWebhookTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	order := createOrder(t, customer, restaurant, constants.MethodCard, 100.00)
	require.NoError(t, database.DB.Model(order).Update("stripe_payment_intent_id", "pi_ref1").Error)
	markPaid(t, order)
	refundRow := model.Refund{
		OrderId: order.ID, Amount: 40.00, Status: "PENDING", Type: "gateway",
		StripeRefundId: ptrString("re_x1"), RequestedBy: customer.ID,
	}
	require.NoError(t, database.DB.Create(&refundRow).Error)

	charge := map[string]any{
		"id":              "ch_ref1",
		"object":          "charge",
		"amount":          10000,
		"amount_refunded": 4000,
		"payment_intent":  "pi_ref1",
	}
	payload := eventPayload(t, "evt_ref1", "charge.refunded", charge)
	status, _ := doRequest(t, app, webhookRequest(t, "/webhooks/stripe/payments", paymentSecret, payload))
	require.Equal(t, http.StatusOK, status)

	var stored model.Order
	require.NoError(t, database.DB.First(&stored, order.ID).Error)
	assert.Equal(t, constants.PaymentRefunded, stored.PaymentStatus)

	var storedRefund model.Refund
	require.NoError(t, database.DB.First(&storedRefund, refundRow.ID).Error)
	assert.Equal(t, "SUCCEEDED", storedRefund.Status)
	assert.True(t, storedRefund.IsPartial, "4000 of 10000 refunded is partial")
}

func TestChargeRefundedSettlesOnlyNewestPendingRefund(t *testing.T) {
	app, _ := setupWebhookTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	customer := createUser(t, "customer@example.com", constants.RoleUser)
	order := createOrder(t, customer, restaurant, constants.MethodCard, 100.00)
	require.NoError(t, database.DB.Model(order).Update("stripe_payment_intent_id", "pi_multi1").Error)
	markPaid(t, order)

	older := model.Refund{
		OrderId: order.ID, Amount: 20.00, Status: "PENDING", Type: "gateway",
		StripeRefundId: ptrString("re_old1"), RequestedBy: customer.ID,
	}
	require.NoError(t, database.DB.Create(&older).Error)
	newer := model.Refund{
		OrderId: order.ID, Amount: 30.00, Status: "PENDING", Type: "gateway",
		StripeRefundId: ptrString("re_new1"), RequestedBy: customer.ID,
	}
	require.NoError(t, database.DB.Create(&newer).Error)

	charge := map[string]any{
		"id":              "ch_multi1",
		"object":          "charge",
		"amount":          10000,
		"amount_refunded": 3000,
		"payment_intent":  "pi_multi1",
	}
	payload := eventPayload(t, "evt_multi1", "charge.refunded", charge)
	status, _ := doRequest(t, app, webhookRequest(t, "/webhooks/stripe/payments", paymentSecret, payload))
	require.Equal(t, http.StatusOK, status)

	var storedNewer model.Refund
	require.NoError(t, database.DB.First(&storedNewer, newer.ID).Error)
	assert.Equal(t, "SUCCEEDED", storedNewer.Status)

	var storedOlder model.Refund
	require.NoError(t, database.DB.First(&storedOlder, older.ID).Error)
	assert.Equal(t, "PENDING", storedOlder.Status, "an unrelated in-flight refund must stay pending")
}

func TestAccountUpdatedSyncsRestaurant(t *testing.T) {
	app, _ := setupWebhookTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)
	require.NoError(t, database.DB.Model(restaurant).Updates(map[string]interface{}{
		"stripe_connect_account_id": "acct_hook1",
		"stripe_account_status":     constants.StripeAccountPending,
	}).Error)

	acct := map[string]any{
		"id":              "acct_hook1",
		"object":          "account",
		"charges_enabled": true,
		"payouts_enabled": true,
		"external_accounts": map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": "ba_hook1", "object": "bank_account"}},
		},
	}
	payload := eventPayload(t, "evt_acct1", "account.updated", acct)
	status, _ := doRequest(t, app, webhookRequest(t, "/webhooks/stripe/accounts", accountSecret, payload))
	require.Equal(t, http.StatusOK, status)

	var stored model.Restaurant
	require.NoError(t, database.DB.First(&stored, restaurant.ID).Error)
	assert.Equal(t, constants.StripeAccountCompleted, stored.StripeAccountStatus)
	assert.True(t, stored.BankAccountAdded)

	// Redelivery is a no-op.
	status, envelope := doRequest(t, app, webhookRequest(t, "/webhooks/stripe/accounts", accountSecret, payload))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, dataOf(t, envelope)["duplicate"])
	assert.EqualValues(t, 1, countStripeEvents(t, "evt_acct1"))
}

func TestAccountUpdatedOrphanIsAcked(t *testing.T) {
	app, _ := setupWebhookTest(t)
	owner := createUser(t, "owner@example.com", constants.RoleRestaurant)
	restaurant := createRestaurant(t, owner)

	acct := map[string]any{
		"id":              "acct_nobody",
		"object":          "account",
		"charges_enabled": true,
		"payouts_enabled": true,
	}
	payload := eventPayload(t, "evt_orphan1", "account.updated", acct)
	status, envelope := doRequest(t, app, webhookRequest(t, "/webhooks/stripe/accounts", accountSecret, payload))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, dataOf(t, envelope)["orphan"])
	assert.EqualValues(t, 1, countStripeEvents(t, "evt_orphan1"))

	// The orphan never gets linked to an unrelated restaurant.
	var stored model.Restaurant
	require.NoError(t, database.DB.First(&stored, restaurant.ID).Error)
	assert.Nil(t, stored.StripeConnectAccountId)
}

func ptrString(s string) *string { return &s }

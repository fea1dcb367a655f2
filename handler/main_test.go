package handler_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/router"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeGateway stands in for Stripe. It hands out deterministic ids and
// records the params of every write call.
type fakeGateway struct {
	mu sync.Mutex

	createAccountCalls int
	createIntentCalls  int
	createRefundCalls  int

	lastIntentParams *stripe.PaymentIntentParams
	lastRefundParams *stripe.RefundParams

	retrieveIntent  func(id string) (*stripe.PaymentIntent, error)
	retrieveAccount func(id string) (*stripe.Account, error)
}

func (f *fakeGateway) CreateAccount(country string) (*stripe.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createAccountCalls++
	return &stripe.Account{ID: fmt.Sprintf("acct_test%d", f.createAccountCalls)}, nil
}

func (f *fakeGateway) CreateAccountLink(accountId, refreshUrl, returnUrl string) (*stripe.AccountLink, error) {
	return &stripe.AccountLink{URL: "https://connect.stripe.example/setup/" + accountId}, nil
}

func (f *fakeGateway) RetrieveAccount(id string) (*stripe.Account, error) {
	if f.retrieveAccount != nil {
		return f.retrieveAccount(id)
	}
	return &stripe.Account{ID: id}, nil
}

func (f *fakeGateway) CreateCustomer(email, name string) (*stripe.Customer, error) {
	return &stripe.Customer{ID: "cus_test1"}, nil
}

func (f *fakeGateway) CreatePaymentIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createIntentCalls++
	f.lastIntentParams = params
	id := fmt.Sprintf("pi_test%d", f.createIntentCalls)
	return &stripe.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
	}, nil
}

func (f *fakeGateway) RetrievePaymentIntent(id string) (*stripe.PaymentIntent, error) {
	if f.retrieveIntent != nil {
		return f.retrieveIntent(id)
	}
	return &stripe.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
	}, nil
}

func (f *fakeGateway) CreateRefund(params *stripe.RefundParams) (*stripe.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createRefundCalls++
	f.lastRefundParams = params
	return &stripe.Refund{ID: fmt.Sprintf("re_test%d", f.createRefundCalls), Status: stripe.RefundStatusPending}, nil
}

// setupTest wires an in-memory database and a fake gateway under the real
// route table. Each test gets its own database.
func setupTest(t *testing.T) (*fiber.App, *fakeGateway) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	database.Migrate(db)
	database.DB = db

	gw := &fakeGateway{}
	helper.StripeClient = gw

	app := fiber.New()
	router.SetupRoutes(app)
	return app, gw
}

func createUser(t *testing.T, email, role string) *model.User {
	t.Helper()
	hash, err := helper.HashPassword("secret123")
	require.NoError(t, err)
	user := model.User{
		Email:         email,
		Phone:         "+971500000000",
		Password:      hash,
		UserName:      strings.Split(email, "@")[0],
		Role:          role,
		EmailVerified: true,
		IsActive:      true,
	}
	require.NoError(t, database.DB.Create(&user).Error)
	return &user
}

func createRestaurant(t *testing.T, owner *model.User) *model.Restaurant {
	t.Helper()
	country := model.Country{Name: "United Arab Emirates", Code: "AE", Currency: "AED"}
	require.NoError(t, database.DB.Where(model.Country{Code: "AE"}).FirstOrCreate(&country).Error)
	city := model.City{Name: "Dubai", CountryId: country.ID}
	require.NoError(t, database.DB.Create(&city).Error)
	mall := model.Mall{Name: "Test Mall", Slug: fmt.Sprintf("test-mall-%d", time.Now().UnixNano()), CityId: city.ID}
	require.NoError(t, database.DB.Create(&mall).Error)

	restaurant := model.Restaurant{
		Name:    "Test Kitchen",
		Slug:    fmt.Sprintf("test-kitchen-%d", time.Now().UnixNano()),
		MallId:  mall.ID,
		OwnerId: owner.ID,
		Status:  constants.RestaurantApproved,
		IsOpen:  true,
	}
	require.NoError(t, database.DB.Create(&restaurant).Error)
	return &restaurant
}

func createOrder(t *testing.T, user *model.User, restaurant *model.Restaurant, method string, total float64) *model.Order {
	t.Helper()
	order := model.Order{
		OrderNumber:     helper.GenerateOrderNumber(),
		UserId:          user.ID,
		RestaurantId:    restaurant.ID,
		Subtotal:        total,
		Total:           total,
		Currency:        "AED",
		Status:          constants.OrderPlaced,
		PaymentMethod:   method,
		PaymentStatus:   constants.PaymentUnpaid,
		DeliveryAddress: "Apt 4, Marina Tower",
	}
	require.NoError(t, database.DB.Create(&order).Error)
	return &order
}

func tokenFor(t *testing.T, user *model.User, restaurantId *uint) string {
	t.Helper()
	token, err := helper.GenerateAccessToken(model.TokenClaim{
		UserId:       user.ID,
		RestaurantId: restaurantId,
		Role:         user.Role,
		Email:        user.Email,
	})
	require.NoError(t, err)
	return token
}

func jsonRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authedRequest(t *testing.T, method, url string, body any, user *model.User, restaurantId *uint) *http.Request {
	t.Helper()
	req := jsonRequest(t, method, url, body)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: tokenFor(t, user, restaurantId)})
	return req
}

// doRequest runs the request and decodes the response envelope.
func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &envelope), "body: %s", raw)
	}
	return resp.StatusCode, envelope
}

func dataOf(t *testing.T, envelope map[string]any) map[string]any {
	t.Helper()
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok, "no data object in %v", envelope)
	return data
}

// webhookRequest signs a payload the way Stripe does: v1 signature over
// "<timestamp>.<payload>".
func webhookRequest(t *testing.T, url, secret string, payload []byte) *http.Request {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return req
}

func eventPayload(t *testing.T, eventId, eventType string, object map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":          eventId,
		"object":      "event",
		"api_version": "2022-11-15",
		"type":        eventType,
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return raw
}

func countStripeEvents(t *testing.T, eventId string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.DB.Model(&model.StripeEvent{}).Where("id = ?", eventId).Count(&n).Error)
	return n
}

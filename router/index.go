package router

import (
	"mall_manager/constants"
	"mall_manager/handler"
	"mall_manager/middleware"
	"mall_manager/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1", logger.New())

	auth := v1.Group("/auth")
	auth.Post("/register", validate.RegisterUser(), handler.RegisterUser)
	auth.Post("/verify-otp", validate.VerifyOtp(), handler.VerifyOtp)
	auth.Post("/login", validate.Login(), handler.Login)
	auth.Post("/refresh-token", handler.RefreshToken)
	auth.Get("/me", middleware.Protected(), handler.Me)
	auth.Post("/forgot-password", validate.ForgotPassword(), handler.ForgotPassword)
	auth.Post("/reset-password", validate.ResetPassword(), handler.ResetPassword)

	user := v1.Group("/user", logger.New())
	user.Get("/", middleware.Protected(), middleware.RequireRole(constants.RoleAdmin), handler.GetUsers)
	user.Put("/profile", middleware.Protected(), validate.EditUser(), handler.EditProfile)
	user.Post("/change-password", middleware.Protected(), validate.ChangePassword(), handler.ChangePassword)
	user.Post("/payment-methods", middleware.Protected(), validate.SavePaymentMethod(), handler.SavePaymentMethod)
	user.Get("/payment-methods", middleware.Protected(), handler.GetPaymentMethods)
	user.Patch("/payment-methods/:pmId/default", middleware.Protected(), validate.GetById("pmId"), handler.SetDefaultPaymentMethod)
	user.Delete("/payment-methods/:pmId", middleware.Protected(), validate.GetById("pmId"), handler.DeletePaymentMethod)
	user.Get("/:userId", middleware.Protected(), middleware.RequireRole(constants.RoleAdmin), validate.GetById("userId"), handler.GetUserById)
	user.Patch("/:userId/active/:isActive", middleware.Protected(), middleware.RequireRole(constants.RoleAdmin), validate.GetById("userId"), handler.ActiveUser)

	country := v1.Group("/country", logger.New())
	country.Get("/", handler.GetCountries)
	country.Post("/", middleware.Protected(), middleware.RequireRole(constants.RoleAdmin), validate.CreateCountry(), handler.CreateCountry)
	country.Get("/:countryId/cities", validate.GetById("countryId"), handler.GetCitiesByCountry)
	v1.Post("/city", middleware.Protected(), middleware.RequireRole(constants.RoleAdmin), validate.CreateCity(), handler.CreateCity)

	mall := v1.Group("/mall", logger.New())
	mall.Get("/", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetMalls)
	mall.Post("/", middleware.Protected(), middleware.RequireRole(constants.RoleAdmin), validate.CreateMall(), handler.CreateMall)
	mall.Delete("/", middleware.Protected(), middleware.RequireRole(constants.RoleAdmin), validate.Delete(), handler.DeleteMall)
	mall.Put("/:mallId", middleware.Protected(), middleware.RequireRole(constants.RoleAdmin), validate.EditMall("mallId"), handler.EditMall)
	mall.Get("/:slug", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetMallDetail)

	restaurant := v1.Group("/restaurant", logger.New())
	restaurant.Get("/", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetRestaurants)
	restaurant.Get("/search", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.SearchRestaurants)
	restaurant.Post("/", middleware.Protected(), validate.CreateRestaurant(), handler.CreateRestaurant)
	restaurant.Put("/:restaurantId", middleware.Protected(), validate.EditRestaurant("restaurantId"), handler.EditRestaurant)
	restaurant.Patch("/:restaurantId/moderate", middleware.Protected(), middleware.RequireRole(constants.RoleAdmin), validate.ModerateRestaurant("restaurantId"), handler.ModerateRestaurant)
	restaurant.Patch("/:restaurantId/commission", middleware.Protected(), middleware.RequireRole(constants.RoleAdmin), validate.SetCommission("restaurantId"), handler.SetCommissionRate)
	restaurant.Put("/:restaurantId/hours", middleware.Protected(), validate.SetBusinessHours(), handler.SetBusinessHours)
	restaurant.Get("/:restaurantId/stats", middleware.Protected(), validate.GetById("restaurantId"), handler.GetRestaurantStats)
	restaurant.Get("/:slug", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetRestaurantDetail)

	// Stripe Connect onboarding for restaurant payouts
	restaurant.Post("/:restaurantId/stripe/account", middleware.Protected(), handler.GetOrCreateStripeAccount)
	restaurant.Post("/:restaurantId/stripe/onboarding-link", middleware.Protected(), handler.GenerateOnboardingLink)
	restaurant.Get("/:restaurantId/stripe/status", middleware.Protected(), handler.GetStripeAccountStatus)

	v1.Post("/cloudinary-signature", middleware.Protected(), handler.GenerateSignature)
	restaurant.Post("/:restaurantId/gallery", middleware.Protected(), handler.UploadGalleryImage)
	restaurant.Post("/:restaurantId/gallery/record", middleware.Protected(), validate.AddGalleryImage(), handler.AddGalleryImage)
	restaurant.Delete("/gallery/:imageId", middleware.Protected(), validate.GetById("imageId"), handler.DeleteGalleryImage)

	restaurant.Get("/:restaurantId/menu", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetMenu)
	restaurant.Post("/:restaurantId/menu/category", middleware.Protected(), validate.CreateMenuCategory(), handler.CreateMenuCategory)

	menu := v1.Group("/menu", logger.New())
	menu.Post("/item", middleware.Protected(), validate.CreateMenuItem(), handler.CreateMenuItem)
	menu.Put("/item/:itemId", middleware.Protected(), validate.EditMenuItem("itemId"), handler.EditMenuItem)
	menu.Delete("/item/:itemId", middleware.Protected(), validate.GetById("itemId"), handler.DeleteMenuItem)

	promo := v1.Group("/promo", logger.New())
	promo.Get("/", middleware.Protected(), handler.GetPromoCodes)
	promo.Post("/", middleware.Protected(), validate.CreatePromoCode(), handler.CreatePromoCode)
	promo.Put("/:promoId", middleware.Protected(), validate.EditPromoCode("promoId"), handler.EditPromoCode)
	promo.Delete("/", middleware.Protected(), validate.Delete(), handler.DeletePromoCode)

	order := v1.Group("/order", logger.New())
	order.Post("/", middleware.Protected(), validate.PlaceOrder(), handler.PlaceOrder)
	order.Get("/", middleware.Protected(), handler.GetMyOrders)
	order.Post("/:id/courier-position", middleware.Protected(), middleware.RequireRole(constants.RoleRestaurant, constants.RoleAdmin), validate.CourierPosition(), handler.UpdateCourierPosition)
	order.Get("/:id/track", websocket.New(handler.OrderTrackingConnection))
	order.Get("/:orderNumber", middleware.Protected(), handler.GetOrderDetail)
	order.Post("/:orderNumber/cancel", middleware.Protected(), handler.CancelOrderByUser)
	order.Patch("/:orderNumber/status", middleware.Protected(), validate.UpdateOrderStatus(), handler.UpdateOrderStatus)

	payment := v1.Group("/payment", logger.New())
	payment.Post("/intent", middleware.Protected(), validate.CreateIntent(), handler.CreatePaymentIntent)
	payment.Post("/refund", middleware.Protected(), validate.RefundOrder(), handler.RefundOrder)

	statistic := v1.Group("/statistic", logger.New())
	statistic.Get("/", middleware.Protected(), handler.GetAdminStats)

	// Stripe callbacks need the raw body for signature verification, so they
	// stay outside the validated groups.
	app.Post("/webhooks/stripe/accounts", handler.StripeAccountWebhook)
	app.Post("/webhooks/stripe/payments", handler.StripePaymentWebhook)
}

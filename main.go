package main

import (
	"log"
	"mall_manager/config"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/router"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // gallery uploads
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.ConfigOr("CORS_ORIGIN", "http://localhost:5173"),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, Stripe-Signature",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	database.ConnectDB()
	database.SeedData(database.DB)
	helper.InitStripe()

	helper.StartOrderExpiryScheduler()
	defer helper.StopOrderExpiryScheduler()
	helper.StartBusinessHoursScheduler()
	defer helper.StopBusinessHoursScheduler()

	router.SetupRoutes(app)
	log.Fatal(app.Listen(":" + config.ConfigOr("PORT", "8002")))
}

package FiberConfig

import (
	"log"
	"time"

	"FuelDoor/Config"
	"FuelDoor/Controllers"
	"FuelDoor/GeoMatch"
	"FuelDoor/Models"
	"FuelDoor/Payments"
	"FuelDoor/Pricing"
	"FuelDoor/middleware"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg Config.AppConfig, engine *Pricing.Engine) {
	store, err := Payments.NewEvidenceStore(cfg.ProofsDir, "/PaymentProofs")
	if err != nil {
		log.Fatal("Failed to initialize evidence store:", err)
	}

	resolver := GeoMatch.NewResolver(GeoMatch.NewLocationIQ(cfg.GeocoderKey, cfg.GeocoderURL))

	// Initialize handlers
	orderHandler := Controllers.NewOrderHandler(db, engine, cfg.OutboxDir)
	paymentHandler := Controllers.NewPaymentHandler(db, store)
	pumpHandler := Controllers.NewPumpHandler(db, resolver)
	reportHandler := Controllers.NewReportHandler(db)

	// API group
	api := app.Group("/api")

	// Pump discovery
	api.Post("/pumps/nearest", pumpHandler.GetNearestPumps)

	// Order routes
	api.Post("/orders", orderHandler.CreateOrder)
	api.Get("/orders/:code", orderHandler.GetOrder)

	// Payment routes - session and proof are customer-facing, verification
	// needs an operator token
	api.Get("/payments/session", paymentHandler.PaymentSession)
	api.Post("/payments/:code/proof", paymentHandler.SubmitProof)
	api.Get("/payments/pending", middleware.Verify(), paymentHandler.ListPendingVerifications)
	api.Post("/payments/:code/decision", middleware.Verify(), paymentHandler.Decide)

	// Reports
	api.Get("/reports/orders", middleware.Verify(), reportHandler.ExportOrdersReport)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Serve uploaded payment proofs
	app.Static("/PaymentProofs", cfg.ProofsDir, fiber.Static{Compress: true, CacheDuration: time.Second * 10})
}

func FiberConfig(cfg Config.AppConfig, engine *Pricing.Engine) {
	log.Println("Server Up...")
	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	SetupRoutes(app, Models.DB, cfg, engine)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"FuelDoor/Config"
	"FuelDoor/CronJobs"
	"FuelDoor/FiberConfig"
	"FuelDoor/Metrics"
	"FuelDoor/Models"
	"FuelDoor/Pricing"
	"FuelDoor/middleware"
)

func main() {
	cfg := Config.Load()
	middleware.Configure(cfg)
	Metrics.Register()

	Models.Connect(cfg)

	engine := Pricing.NewEngine(Config.LoadPricing(cfg.PricingConfig))

	replayer := CronJobs.NewOutboxReplayer(Models.DB, cfg.OutboxDir)
	scheduler := replayer.Start()
	defer scheduler.Stop()

	FiberConfig.FiberConfig(cfg, engine)
}

package Models

import (
	"log"

	"FuelDoor/Config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect(cfg Config.AppConfig) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DBDSN)
	default:
		dialector = sqlite.Open(cfg.DBPath)
	}

	connection, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to %s database: %v", cfg.DBDriver, err)
	}
	DB = connection

	Migrate(DB)
}

// Migrate runs AutoMigrate in dependency order.
func Migrate(db *gorm.DB) {
	// 1. Base tables with no dependencies
	if err := db.AutoMigrate(&PetrolPump{}); err != nil {
		log.Println(err)
	}

	// 2. Orders reference pumps
	if err := db.AutoMigrate(&Order{}); err != nil {
		log.Println(err)
	}

	// 3. Replay archive references orders
	if err := db.AutoMigrate(&OutboxRecord{}); err != nil {
		log.Println(err)
	}
}

package Config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// AppConfig carries everything read from the environment at startup.
type AppConfig struct {
	Port          string
	DBDriver      string // "sqlite" or "mysql"
	DBPath        string // sqlite file path
	DBDSN         string // mysql dsn
	ProofsDir     string
	OutboxDir     string
	JWTSecret     string
	GeocoderKey   string
	GeocoderURL   string
	PricingConfig string
}

func Load() AppConfig {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	return AppConfig{
		Port:          getEnv("PORT", "3001"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBPath:        getEnv("DB_PATH", "database.db"),
		DBDSN:         getEnv("DB_DSN", ""),
		ProofsDir:     getEnv("PROOFS_DIR", "./PaymentProofs"),
		OutboxDir:     getEnv("OUTBOX_DIR", "./OrderOutbox"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		GeocoderKey:   getEnv("LOCATIONIQ_API_KEY", ""),
		GeocoderURL:   getEnv("LOCATIONIQ_BASE_URL", "https://us1.locationiq.com/v1"),
		PricingConfig: getEnv("PRICING_CONFIG", "config.json5"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// PricingConfig holds the delivery fee slab table and the tax rate. The slab
// scheme is the single canonical one; amounts are configuration, never inlined.
type PricingConfig struct {
	SlabAMax float64 `json:"slab_a_max"`
	SlabBMax float64 `json:"slab_b_max"`
	SlabCMax float64 `json:"slab_c_max"`
	SlabAFee float64 `json:"slab_a_fee"`
	SlabBFee float64 `json:"slab_b_fee"`
	SlabCFee float64 `json:"slab_c_fee"`
	TaxRate  float64 `json:"tax_rate"`
}

// DefaultPricing mirrors the published slab table: 1-10 units ₹60, 11-25 ₹40,
// 26-50 ₹20, above 50 free, 5% tax on fuel cost plus delivery fee.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		SlabAMax: 10,
		SlabBMax: 25,
		SlabCMax: 50,
		SlabAFee: 60,
		SlabBFee: 40,
		SlabCFee: 20,
		TaxRate:  0.05,
	}
}

// LoadPricing reads the pricing configuration from a JSON5 file, falling back
// to the defaults when the file is absent.
func LoadPricing(path string) PricingConfig {
	cfg := DefaultPricing()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Pricing config %s not readable, using defaults: %v", path, err)
		return cfg
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		log.Printf("Pricing config %s invalid, using defaults: %v", path, err)
		return DefaultPricing()
	}
	return cfg
}

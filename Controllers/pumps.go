package Controllers

import (
	"errors"
	"log"
	"math"

	"FuelDoor/GeoMatch"
	"FuelDoor/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PumpHandler struct {
	DB       *gorm.DB
	Resolver *GeoMatch.Resolver
}

func NewPumpHandler(db *gorm.DB, resolver *GeoMatch.Resolver) *PumpHandler {
	return &PumpHandler{DB: db, Resolver: resolver}
}

type NearestPumpsRequest struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address"`
}

// GetNearestPumps ranks active pumps by distance from the customer. When no
// coordinates are given the address is geocoded through the acquisition
// protocol; if that ends coordinate-less, every pump reports distance
// unavailable and the customer picks manually.
// POST /api/pumps/nearest
func (h *PumpHandler) GetNearestPumps(c *fiber.Ctx) error {
	var req NearestPumpsRequest
	if err := c.BodyParser(&req); err != nil {
		log.Println(err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	lat, lng := math.NaN(), math.NaN()
	resolvedAddress := req.Address
	switch {
	case req.Lat != nil && req.Lng != nil:
		lat, lng = *req.Lat, *req.Lng
	case req.Address != "":
		fix := h.Resolver.Resolve(c.Context(), req.Address)
		resolvedAddress = fix.Address
		if fix.HasCoordinates {
			lat, lng = fix.Latitude, fix.Longitude
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": "Either coordinates or an address is required",
		})
	}

	var pumps []Models.PetrolPump
	if err := h.DB.Find(&pumps).Error; err != nil {
		log.Println(err)
		appErr := Models.MapUpstreamError(err)
		return c.Status(Models.StatusCode(appErr)).JSON(fiber.Map{
			"error":   "Database error",
			"message": appErr.Message,
		})
	}

	ranked, err := GeoMatch.RankPumps(lat, lng, pumps)
	if errors.Is(err, GeoMatch.ErrNoPumpsAvailable) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "No pumps available",
			"message": "No petrol pumps found. Please register pumps first.",
		})
	}

	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	items := make([]fiber.Map, 0, len(ranked))
	for i, r := range ranked {
		item := fiber.Map{
			"id":           r.Pump.ID,
			"company_name": r.Pump.CompanyName,
			"location":     r.Pump.Location,
			"fuel_price":   r.Pump.FuelPrice,
			"is_available": r.IsAvailable,
			"recommended":  i == 0 && r.IsAvailable,
		}
		if r.IsAvailable {
			item["distance_km"] = math.Round(r.Distance*10) / 10
		} else {
			item["distance_km"] = nil
		}
		items = append(items, item)
	}

	return c.JSON(fiber.Map{
		"message":  "Nearest pumps retrieved successfully",
		"address":  resolvedAddress,
		"stations": items,
		"total":    len(items),
	})
}

package GeoMatch

import (
	"errors"
	"math"
	"sort"

	"FuelDoor/Models"
)

const earthRadiusKm = 6371.0

var ErrNoPumpsAvailable = errors.New("no petrol pumps available")

// RankedPump pairs a pump with its great-circle distance from the customer.
// Pumps without coordinates get +Inf and are flagged unavailable.
type RankedPump struct {
	Pump        Models.PetrolPump `json:"pump"`
	Distance    float64           `json:"distance"`
	IsAvailable bool              `json:"is_available"`
}

// Haversine calculates the great-circle distance in kilometers between two
// points on Earth.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// RankPumps filters out inactive pumps and sorts the rest ascending by
// distance from the customer. Coordinate-less pumps sort after every pump
// with a finite distance. The first available entry is the default selection;
// the caller may pick any other listed pump instead. NaN customer
// coordinates mean no fix was obtained: every pump then ranks as
// distance-unavailable.
func RankPumps(customerLat, customerLon float64, pumps []Models.PetrolPump) ([]RankedPump, error) {
	hasFix := !math.IsNaN(customerLat) && !math.IsNaN(customerLon)

	ranked := make([]RankedPump, 0, len(pumps))
	for _, pump := range pumps {
		if pump.Status != Models.PumpStatusActive {
			continue
		}

		distance := math.Inf(1)
		if hasFix && pump.HasCoordinates() {
			distance = Haversine(customerLat, customerLon, *pump.Latitude, *pump.Longitude)
		}

		ranked = append(ranked, RankedPump{
			Pump:        pump,
			Distance:    distance,
			IsAvailable: !math.IsInf(distance, 1),
		})
	}

	if len(ranked) == 0 {
		return nil, ErrNoPumpsAvailable
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})
	return ranked, nil
}

// Nearest returns the default selection: the first pump with a finite
// distance. ok is false when every listed pump lacks coordinates.
func Nearest(ranked []RankedPump) (RankedPump, bool) {
	for _, r := range ranked {
		if r.IsAvailable {
			return r, true
		}
	}
	return RankedPump{}, false
}

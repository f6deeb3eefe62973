package fleet

import (
	"math"

	"github.com/ukydev/logiroute/internal/models"
)

const (
	// KmPerDegree converts coordinate distance into kilometres on a flat earth.
	KmPerDegree = 111.0
	// MinutesPerKm assumes an average speed of 30 km/h.
	MinutesPerKm = 2.0
)

// EstimateMinutes is the straight-line travel time between two locations.
func EstimateMinutes(from, to models.Location) int {
	km := math.Hypot(from.Lat-to.Lat, from.Lon-to.Lon) * KmPerDegree
	return int(math.Round(km * MinutesPerKm))
}

// estimateFor recomputes the ETA of d, falling back to its previous value when
// either endpoint is unknown.
func estimateFor(s State, d models.Delivery) *int {
	pickup, ok := s.Location(d.PickupLocationID)
	if !ok {
		return d.EstimatedMinutes
	}
	dropoff, ok := s.Location(d.DropoffLocationID)
	if !ok {
		return d.EstimatedMinutes
	}
	eta := EstimateMinutes(pickup, dropoff)
	return &eta
}

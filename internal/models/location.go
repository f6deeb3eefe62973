package models

// LocationKind distinguishes warehouses from delivery destinations.
type LocationKind string

const (
	LocationWarehouse   LocationKind = "warehouse"
	LocationDestination LocationKind = "destination"
)

// IsValidLocationKind checks if a location kind is known
func IsValidLocationKind(kind LocationKind) bool {
	return kind == LocationWarehouse || kind == LocationDestination
}

// Location represents a named point on the map. Locations are seeded once and
// never change afterwards.
type Location struct {
	ID   string       `yaml:"id" json:"id"`
	Name string       `yaml:"name" json:"name"`
	Kind LocationKind `yaml:"kind" json:"kind"`
	Lat  float64      `yaml:"lat" json:"lat"`
	Lon  float64      `yaml:"lon" json:"lon"`
}

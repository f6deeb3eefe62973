// Package fleet holds the in-memory vehicle and delivery tables and the
// reducer that applies status, fuel and assignment changes to them.
package fleet

import "github.com/ukydev/logiroute/internal/models"

// State is the combined value of both tables plus the read-only locations.
// Slices keep fixture order so listings are stable.
type State struct {
	Locations  []models.Location `yaml:"locations" json:"locations"`
	Vehicles   []models.Vehicle  `yaml:"vehicles" json:"vehicles"`
	Deliveries []models.Delivery `yaml:"deliveries" json:"deliveries"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{
		Locations:  make([]models.Location, len(s.Locations)),
		Vehicles:   make([]models.Vehicle, len(s.Vehicles)),
		Deliveries: make([]models.Delivery, len(s.Deliveries)),
	}
	copy(out.Locations, s.Locations)
	copy(out.Vehicles, s.Vehicles)
	for i, d := range s.Deliveries {
		if d.EstimatedMinutes != nil {
			eta := *d.EstimatedMinutes
			d.EstimatedMinutes = &eta
		}
		out.Deliveries[i] = d
	}
	return out
}

// Location looks up a location by id.
func (s State) Location(id string) (models.Location, bool) {
	for _, l := range s.Locations {
		if l.ID == id {
			return l, true
		}
	}
	return models.Location{}, false
}

// Vehicle looks up a vehicle by id.
func (s State) Vehicle(id string) (models.Vehicle, bool) {
	if i := s.vehicleIndex(id); i >= 0 {
		return s.Vehicles[i], true
	}
	return models.Vehicle{}, false
}

// Delivery looks up a delivery by id.
func (s State) Delivery(id string) (models.Delivery, bool) {
	if i := s.deliveryIndex(id); i >= 0 {
		return s.Deliveries[i], true
	}
	return models.Delivery{}, false
}

func (s State) vehicleIndex(id string) int {
	for i, v := range s.Vehicles {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func (s State) deliveryIndex(id string) int {
	for i, d := range s.Deliveries {
		if d.ID == id {
			return i
		}
	}
	return -1
}

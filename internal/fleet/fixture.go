package fleet

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ukydev/logiroute/internal/models"
)

//go:embed fixture.yaml
var defaultFixture []byte

// DefaultState returns the built-in seed data.
func DefaultState() (State, error) {
	return LoadFixture(bytes.NewReader(defaultFixture))
}

// LoadFixtureFile reads seed data from a YAML file.
func LoadFixtureFile(path string) (State, error) {
	f, err := os.Open(path)
	if err != nil {
		return State{}, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return LoadFixture(f)
}

// LoadFixture decodes seed data and checks ids and enum values. Fuel levels
// are clamped. References to unknown locations are accepted; the ETA keeps
// its previous value for such deliveries.
func LoadFixture(r io.Reader) (State, error) {
	var s State
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return State{}, fmt.Errorf("decode fixture: %w", err)
	}

	seen := map[string]bool{}
	for _, l := range s.Locations {
		if err := checkID(seen, "location", l.ID); err != nil {
			return State{}, err
		}
		if !models.IsValidLocationKind(l.Kind) {
			return State{}, fmt.Errorf("location %s: unknown kind %q", l.ID, l.Kind)
		}
	}

	seen = map[string]bool{}
	for i, v := range s.Vehicles {
		if err := checkID(seen, "vehicle", v.ID); err != nil {
			return State{}, err
		}
		if !models.IsValidVehicleStatus(v.Status) {
			return State{}, fmt.Errorf("vehicle %s: %w %q", v.ID, ErrUnknownStatus, v.Status)
		}
		s.Vehicles[i].CurrentFuel = models.ClampFuel(v.CurrentFuel)
	}

	seen = map[string]bool{}
	for _, d := range s.Deliveries {
		if err := checkID(seen, "delivery", d.ID); err != nil {
			return State{}, err
		}
		if !models.IsValidDeliveryStatus(d.Status) {
			return State{}, fmt.Errorf("delivery %s: %w %q", d.ID, ErrUnknownStatus, d.Status)
		}
		if d.Status == models.DeliveryInTransit && !d.HasVehicle() {
			return State{}, fmt.Errorf("delivery %s: %w", d.ID, models.ErrVehicleRequired)
		}
	}

	if s.Locations == nil {
		s.Locations = []models.Location{}
	}
	if s.Vehicles == nil {
		s.Vehicles = []models.Vehicle{}
	}
	if s.Deliveries == nil {
		s.Deliveries = []models.Delivery{}
	}
	return s, nil
}

func checkID(seen map[string]bool, what, id string) error {
	if id == "" {
		return fmt.Errorf("%s with empty id", what)
	}
	if seen[id] {
		return fmt.Errorf("duplicate %s id %q", what, id)
	}
	seen[id] = true
	return nil
}

package fleet

import "github.com/ukydev/logiroute/internal/models"

// AvailableVehicles returns the vehicles that can take a new delivery: status
// available, enough fuel, and not held by an assigned or in-transit delivery.
func AvailableVehicles(s State) []models.Vehicle {
	out := []models.Vehicle{}
	for _, v := range s.Vehicles {
		if v.Status == models.VehicleAvailable && !v.LowFuel() && !VehicleLocked(s, v.ID) {
			out = append(out, v)
		}
	}
	return out
}

func isAvailable(s State, vehicleID string) bool {
	for _, v := range AvailableVehicles(s) {
		if v.ID == vehicleID {
			return true
		}
	}
	return false
}

// VehicleLocked reports whether an active delivery references the vehicle.
// The vehicle's own status selector is disabled while this holds.
func VehicleLocked(s State, vehicleID string) bool {
	for _, d := range s.Deliveries {
		if d.AssignedVehicleID == vehicleID && d.Status.Active() {
			return true
		}
	}
	return false
}

// Summary holds the dashboard counters.
type Summary struct {
	Locations         int `json:"locations"`
	AvailableVehicles int `json:"available_vehicles"`
	TotalVehicles     int `json:"total_vehicles"`
	ActiveDeliveries  int `json:"active_deliveries"`
}

// Summarize counts locations, vehicles whose status is available, all
// vehicles, and deliveries that are not yet delivered.
func Summarize(s State) Summary {
	sum := Summary{
		Locations:     len(s.Locations),
		TotalVehicles: len(s.Vehicles),
	}
	for _, v := range s.Vehicles {
		if v.Status == models.VehicleAvailable {
			sum.AvailableVehicles++
		}
	}
	for _, d := range s.Deliveries {
		if d.Status != models.DeliveryDelivered {
			sum.ActiveDeliveries++
		}
	}
	return sum
}

// Marker is a location on the map together with the vehicles based there.
type Marker struct {
	models.Location
	VehicleIDs []string `json:"vehicle_ids"`
}

// Markers returns one marker per location in fixture order.
func Markers(s State) []Marker {
	out := make([]Marker, 0, len(s.Locations))
	for _, l := range s.Locations {
		m := Marker{Location: l, VehicleIDs: []string{}}
		for _, v := range s.Vehicles {
			if v.WarehouseID == l.ID {
				m.VehicleIDs = append(m.VehicleIDs, v.ID)
			}
		}
		out = append(out, m)
	}
	return out
}

// Route is the line drawn for an in-transit delivery.
type Route struct {
	DeliveryID string          `json:"delivery_id"`
	VehicleID  string          `json:"vehicle_id,omitempty"`
	From       models.Location `json:"from"`
	To         models.Location `json:"to"`
}

// Routes returns a line for every in-transit delivery whose endpoints resolve.
func Routes(s State) []Route {
	out := []Route{}
	for _, d := range s.Deliveries {
		if d.Status != models.DeliveryInTransit {
			continue
		}
		from, ok := s.Location(d.PickupLocationID)
		if !ok {
			continue
		}
		to, ok := s.Location(d.DropoffLocationID)
		if !ok {
			continue
		}
		out = append(out, Route{DeliveryID: d.ID, VehicleID: d.AssignedVehicleID, From: from, To: to})
	}
	return out
}

// Options describes the controls offered for one delivery.
type Options struct {
	DeliveryID        string                  `json:"delivery_id"`
	CurrentVehicle    string                  `json:"current_vehicle,omitempty"`
	VehicleChoices    []models.Vehicle        `json:"vehicle_choices"`
	StatusChoices     []models.DeliveryStatus `json:"status_choices"`
	AssignmentEnabled bool                    `json:"assignment_enabled"`
	StatusEnabled     bool                    `json:"status_enabled"`
}

// DeliveryOptions returns the control state for a delivery. The vehicle
// choices are the available vehicles; the status choices are every legal
// target of the legality check.
func DeliveryOptions(s State, deliveryID string) (Options, bool) {
	d, ok := s.Delivery(deliveryID)
	if !ok {
		return Options{}, false
	}
	done := d.Status == models.DeliveryDelivered
	opts := Options{
		DeliveryID:        d.ID,
		CurrentVehicle:    d.AssignedVehicleID,
		VehicleChoices:    []models.Vehicle{},
		StatusChoices:     []models.DeliveryStatus{},
		AssignmentEnabled: !done,
		StatusEnabled:     !done && d.HasVehicle(),
	}
	if opts.AssignmentEnabled {
		opts.VehicleChoices = AvailableVehicles(s)
	}
	for _, status := range models.DeliveryStatuses {
		if d.CanTransition(status) {
			opts.StatusChoices = append(opts.StatusChoices, status)
		}
	}
	return opts, true
}

// VehicleView is a vehicle as listed on the dashboard.
type VehicleView struct {
	models.Vehicle
	WarehouseName string `json:"warehouse_name,omitempty"`
	Locked        bool   `json:"locked"`
	LowFuel       bool   `json:"low_fuel"`
}

// VehicleViews lists vehicles with their warehouse name and control flags.
func VehicleViews(s State) []VehicleView {
	out := make([]VehicleView, 0, len(s.Vehicles))
	for _, v := range s.Vehicles {
		out = append(out, NewVehicleView(s, v))
	}
	return out
}

// NewVehicleView decorates a single vehicle.
func NewVehicleView(s State, v models.Vehicle) VehicleView {
	view := VehicleView{Vehicle: v, Locked: VehicleLocked(s, v.ID), LowFuel: v.LowFuel()}
	if l, ok := s.Location(v.WarehouseID); ok {
		view.WarehouseName = l.Name
	}
	return view
}

// DeliveryView is a delivery as listed on the dashboard.
type DeliveryView struct {
	models.Delivery
	PickupName  string `json:"pickup_name,omitempty"`
	DropoffName string `json:"dropoff_name,omitempty"`
}

// DeliveryViews lists deliveries with their pickup and dropoff names.
func DeliveryViews(s State) []DeliveryView {
	out := make([]DeliveryView, 0, len(s.Deliveries))
	for _, d := range s.Deliveries {
		out = append(out, NewDeliveryView(s, d))
	}
	return out
}

// NewDeliveryView decorates a single delivery.
func NewDeliveryView(s State, d models.Delivery) DeliveryView {
	view := DeliveryView{Delivery: d}
	if l, ok := s.Location(d.PickupLocationID); ok {
		view.PickupName = l.Name
	}
	if l, ok := s.Location(d.DropoffLocationID); ok {
		view.DropoffName = l.Name
	}
	return view
}

package fleet

import "github.com/ukydev/logiroute/internal/models"

// Action kinds, also used as event topics and metric labels.
const (
	KindSetVehicleStatus = "vehicle_status"
	KindSetVehicleFuel   = "vehicle_fuel"
	KindUpdateDelivery   = "delivery_update"
)

// Action is a single change to the state. Applying an action may emit
// follow-up actions that the reducer processes after it.
type Action interface {
	Kind() string
	apply(s *State) (follow []Action, ok bool)
}

// SetVehicleStatus sets a vehicle's status. Sending a vehicle to maintenance
// releases any active delivery it was serving.
type SetVehicleStatus struct {
	VehicleID string               `json:"vehicle_id"`
	Status    models.VehicleStatus `json:"status"`
}

func (SetVehicleStatus) Kind() string { return KindSetVehicleStatus }

func (a SetVehicleStatus) apply(s *State) ([]Action, bool) {
	i := s.vehicleIndex(a.VehicleID)
	if i < 0 {
		return nil, false
	}
	s.Vehicles[i].Status = a.Status

	var follow []Action
	if a.Status == models.VehicleMaintenance {
		for _, d := range s.Deliveries {
			if d.AssignedVehicleID == a.VehicleID && d.Status.Active() {
				follow = append(follow, UpdateDelivery{DeliveryID: d.ID, Status: models.DeliveryPending})
			}
		}
	}
	return follow, true
}

// SetVehicleFuel sets a vehicle's fuel level, clamped to [0,100]. Dropping
// below the low-fuel threshold sends the vehicle to maintenance.
type SetVehicleFuel struct {
	VehicleID string  `json:"vehicle_id"`
	Fuel      float64 `json:"fuel"`
}

func (SetVehicleFuel) Kind() string { return KindSetVehicleFuel }

func (a SetVehicleFuel) apply(s *State) ([]Action, bool) {
	i := s.vehicleIndex(a.VehicleID)
	if i < 0 {
		return nil, false
	}
	fuel := models.ClampFuel(a.Fuel)

	// Decided against the status before this update.
	var follow []Action
	if fuel < models.LowFuelThreshold && s.Vehicles[i].Status != models.VehicleMaintenance {
		follow = append(follow, SetVehicleStatus{VehicleID: a.VehicleID, Status: models.VehicleMaintenance})
	}
	s.Vehicles[i].CurrentFuel = fuel
	return follow, true
}

// UpdateDelivery sets a delivery's status and assigned vehicle. An empty
// VehicleID clears the assignment.
type UpdateDelivery struct {
	DeliveryID string                `json:"delivery_id"`
	Status     models.DeliveryStatus `json:"status"`
	VehicleID  string                `json:"vehicle_id,omitempty"`
}

func (UpdateDelivery) Kind() string { return KindUpdateDelivery }

func (a UpdateDelivery) apply(s *State) ([]Action, bool) {
	i := s.deliveryIndex(a.DeliveryID)
	if i < 0 {
		return nil, false
	}
	d := s.Deliveries[i]
	previousVehicle := d.AssignedVehicleID

	eta := d.EstimatedMinutes
	if a.Status == models.DeliveryInTransit {
		eta = estimateFor(*s, d)
	}

	var follow []Action
	if a.VehicleID != "" {
		vehicleStatus := models.VehicleAvailable
		if a.Status == models.DeliveryInTransit {
			vehicleStatus = models.VehicleEnRoute
		}
		follow = append(follow, SetVehicleStatus{VehicleID: a.VehicleID, Status: vehicleStatus})
	}
	if a.Status == models.DeliveryDelivered && previousVehicle != "" {
		follow = append(follow, SetVehicleStatus{VehicleID: previousVehicle, Status: models.VehicleAvailable})
	}

	d.Status = a.Status
	d.AssignedVehicleID = a.VehicleID
	d.EstimatedMinutes = eta
	s.Deliveries[i] = d
	return follow, true
}

// AssignVehicle builds the action behind the vehicle selector of a delivery:
// picking a vehicle assigns it, picking none returns the delivery to pending.
func AssignVehicle(deliveryID, vehicleID string) UpdateDelivery {
	if vehicleID == "" {
		return UpdateDelivery{DeliveryID: deliveryID, Status: models.DeliveryPending}
	}
	return UpdateDelivery{DeliveryID: deliveryID, Status: models.DeliveryAssigned, VehicleID: vehicleID}
}

// ChangeStatus builds the action behind the status selector of a delivery,
// keeping its current vehicle. Moving back to pending releases the vehicle.
func ChangeStatus(d models.Delivery, status models.DeliveryStatus) UpdateDelivery {
	if status == models.DeliveryPending {
		return UpdateDelivery{DeliveryID: d.ID, Status: status}
	}
	return UpdateDelivery{DeliveryID: d.ID, Status: status, VehicleID: d.AssignedVehicleID}
}

// ChangeDeliveryStatus is ChangeStatus resolved against the state the action
// is applied to rather than a snapshot taken by the caller, so a concurrent
// reassignment is never overwritten with a stale vehicle.
type ChangeDeliveryStatus struct {
	DeliveryID string                `json:"delivery_id"`
	Status     models.DeliveryStatus `json:"status"`
}

func (ChangeDeliveryStatus) Kind() string { return KindUpdateDelivery }

func (a ChangeDeliveryStatus) resolve(s State) UpdateDelivery {
	d, ok := s.Delivery(a.DeliveryID)
	if !ok {
		return UpdateDelivery{DeliveryID: a.DeliveryID, Status: a.Status}
	}
	return ChangeStatus(d, a.Status)
}

func (a ChangeDeliveryStatus) apply(s *State) ([]Action, bool) {
	return a.resolve(*s).apply(s)
}

// Resolve returns the concrete action that action stands for in s.
func Resolve(s State, action Action) Action {
	if a, ok := action.(ChangeDeliveryStatus); ok {
		return a.resolve(s)
	}
	return action
}

// Step is the JSON form of an applied action.
type Step struct {
	Kind   string `json:"kind"`
	Action Action `json:"action"`
}

// Steps describes applied actions in order.
func Steps(actions []Action) []Step {
	out := make([]Step, 0, len(actions))
	for _, a := range actions {
		out = append(out, Step{Kind: a.Kind(), Action: a})
	}
	return out
}

package fleet

import (
	"fmt"
	"math"

	"github.com/ukydev/logiroute/internal/models"
)

// Validate checks a top-level action against the current state. Follow-up
// actions emitted by the reducer are not validated: a vehicle going to
// maintenance may push an in-transit delivery straight back to pending.
// Actions naming an unknown entity pass and are skipped by Apply.
func Validate(s State, action Action) error {
	switch a := action.(type) {
	case SetVehicleStatus:
		if !models.IsValidVehicleStatus(a.Status) {
			return fmt.Errorf("vehicle %s: %w %q", a.VehicleID, ErrUnknownStatus, a.Status)
		}
	case SetVehicleFuel:
		if math.IsNaN(a.Fuel) {
			return fmt.Errorf("vehicle %s: %w", a.VehicleID, ErrInvalidFuel)
		}
	case UpdateDelivery:
		return validateDeliveryUpdate(s, a)
	case ChangeDeliveryStatus:
		return validateDeliveryUpdate(s, a.resolve(s))
	}
	return nil
}

func validateDeliveryUpdate(s State, a UpdateDelivery) error {
	if !models.IsValidDeliveryStatus(a.Status) {
		return fmt.Errorf("delivery %s: %w %q", a.DeliveryID, ErrUnknownStatus, a.Status)
	}
	d, ok := s.Delivery(a.DeliveryID)
	if !ok {
		return nil
	}

	if err := d.CheckTransition(a.Status); err != nil {
		return &InvalidTransitionError{DeliveryID: d.ID, From: d.Status, To: a.Status, Reason: err}
	}
	if a.Status.Active() && a.VehicleID == "" {
		return &InvalidTransitionError{DeliveryID: d.ID, From: d.Status, To: a.Status, Reason: models.ErrVehicleRequired}
	}

	// Only an active delivery holds its vehicle. A pending one that still
	// names a vehicle must find it available like any other.
	holds := d.Status.Active() && d.AssignedVehicleID == a.VehicleID
	if a.VehicleID != "" && !holds && !isAvailable(s, a.VehicleID) {
		return fmt.Errorf("delivery %s: %w: %s", d.ID, ErrVehicleUnavailable, a.VehicleID)
	}
	return nil
}

package fleet

import (
	"errors"
	"fmt"

	"github.com/ukydev/logiroute/internal/models"
)

var (
	ErrInvalidTransition  = errors.New("invalid delivery transition")
	ErrVehicleUnavailable = errors.New("vehicle is not available")
	ErrInvalidFuel        = errors.New("invalid fuel level")
	ErrUnknownStatus      = models.ErrUnknownStatus
)

// InvalidTransitionError is returned when a delivery may not move to the
// requested status. Reason is one of the models transition errors.
type InvalidTransitionError struct {
	DeliveryID string
	From       models.DeliveryStatus
	To         models.DeliveryStatus
	Reason     error
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("delivery %s: cannot move from %s to %s: %v", e.DeliveryID, e.From, e.To, e.Reason)
}

// Is matches ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func (e *InvalidTransitionError) Unwrap() error {
	return e.Reason
}

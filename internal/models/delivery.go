package models

import (
	"errors"
	"fmt"
)

// DeliveryStatus is the lifecycle state of a delivery job.
//
//	pending <-> assigned <-> in-transit -> delivered
//
// Moves are one step at a time in either direction; delivered is terminal.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryInTransit DeliveryStatus = "in-transit"
	DeliveryDelivered DeliveryStatus = "delivered"
)

// DeliveryStatuses lists every status in lifecycle order.
var DeliveryStatuses = []DeliveryStatus{
	DeliveryPending,
	DeliveryAssigned,
	DeliveryInTransit,
	DeliveryDelivered,
}

var (
	ErrUnknownStatus   = errors.New("unknown status")
	ErrStatusSkipped   = errors.New("status may only move one step at a time")
	ErrVehicleRequired = errors.New("an assigned vehicle is required")
	ErrAlreadyDone     = errors.New("delivery is already delivered")
)

// Index returns the position of the status in lifecycle order, or -1.
func (s DeliveryStatus) Index() int {
	for i, status := range DeliveryStatuses {
		if status == s {
			return i
		}
	}
	return -1
}

// IsValidDeliveryStatus checks if a delivery status is known
func IsValidDeliveryStatus(status DeliveryStatus) bool {
	return status.Index() >= 0
}

// Active reports whether a delivery in this status holds on to its vehicle.
func (s DeliveryStatus) Active() bool {
	return s == DeliveryAssigned || s == DeliveryInTransit
}

// Delivery represents a job moving goods from a pickup to a dropoff location.
type Delivery struct {
	ID                string         `yaml:"id" json:"id"`
	PickupLocationID  string         `yaml:"pickup_location" json:"pickup_location"`
	DropoffLocationID string         `yaml:"dropoff_location" json:"dropoff_location"`
	Status            DeliveryStatus `yaml:"status" json:"status"`
	AssignedVehicleID string         `yaml:"assigned_vehicle,omitempty" json:"assigned_vehicle,omitempty"`
	EstimatedMinutes  *int           `yaml:"estimated_time,omitempty" json:"estimated_time,omitempty"`
}

// HasVehicle reports whether a vehicle is assigned.
func (d Delivery) HasVehicle() bool {
	return d.AssignedVehicleID != ""
}

// CheckTransition reports why moving the delivery to target is not allowed,
// or nil when it is.
func (d Delivery) CheckTransition(target DeliveryStatus) error {
	from, to := d.Status.Index(), target.Index()
	if from < 0 || to < 0 {
		return fmt.Errorf("%w: %q -> %q", ErrUnknownStatus, d.Status, target)
	}
	if to-from > 1 || from-to > 1 {
		return ErrStatusSkipped
	}
	if target == DeliveryInTransit && !d.HasVehicle() {
		return ErrVehicleRequired
	}
	if d.Status == DeliveryDelivered {
		return ErrAlreadyDone
	}
	return nil
}

// CanTransition is the legality check for a proposed status change.
func (d Delivery) CanTransition(target DeliveryStatus) bool {
	return d.CheckTransition(target) == nil
}

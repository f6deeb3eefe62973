package models

import "math"

// VehicleStatus is the operational state of a vehicle.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleEnRoute     VehicleStatus = "en-route"
	VehicleMaintenance VehicleStatus = "maintenance"
)

const (
	// MinFuel and MaxFuel bound the fuel level, expressed in percent.
	MinFuel = 0.0
	MaxFuel = 100.0

	// LowFuelThreshold is the level below which a vehicle is sent to maintenance.
	LowFuelThreshold = 20.0
)

// IsValidVehicleStatus checks if a vehicle status is known
func IsValidVehicleStatus(status VehicleStatus) bool {
	switch status {
	case VehicleAvailable, VehicleEnRoute, VehicleMaintenance:
		return true
	default:
		return false
	}
}

// Vehicle represents a delivery vehicle based at a warehouse.
type Vehicle struct {
	ID           string        `yaml:"id" json:"id"`
	WarehouseID  string        `yaml:"warehouse_id" json:"warehouse_id"`
	FuelCapacity float64       `yaml:"fuel_capacity" json:"fuel_capacity"`
	CurrentFuel  float64       `yaml:"current_fuel" json:"current_fuel"` // percent, 0-100
	Status       VehicleStatus `yaml:"status" json:"status"`
}

// LowFuel reports whether the vehicle is below the low-fuel threshold.
func (v Vehicle) LowFuel() bool {
	return v.CurrentFuel < LowFuelThreshold
}

// ClampFuel bounds a requested fuel level into [MinFuel, MaxFuel]. NaN maps to MinFuel.
func ClampFuel(fuel float64) float64 {
	if math.IsNaN(fuel) {
		return MinFuel
	}
	return math.Min(MaxFuel, math.Max(MinFuel, fuel))
}

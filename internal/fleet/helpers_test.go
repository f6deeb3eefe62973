package fleet

import "github.com/ukydev/logiroute/internal/models"

func intPtr(v int) *int { return &v }

// testState mirrors the built-in fixture so tests do not depend on YAML.
func testState() State {
	return State{
		Locations: []models.Location{
			{ID: "wh1", Name: "Central Warehouse", Kind: models.LocationWarehouse, Lat: 40.7128, Lon: -74.0060},
			{ID: "wh2", Name: "East Warehouse", Kind: models.LocationWarehouse, Lat: 40.7589, Lon: -73.9851},
			{ID: "dest1", Name: "Downtown Mall", Kind: models.LocationDestination, Lat: 40.7505, Lon: -73.9934},
			{ID: "dest2", Name: "Business District", Kind: models.LocationDestination, Lat: 40.7527, Lon: -73.9772},
		},
		Vehicles: []models.Vehicle{
			{ID: "v1", WarehouseID: "wh1", FuelCapacity: 100, CurrentFuel: 85, Status: models.VehicleAvailable},
			{ID: "v2", WarehouseID: "wh1", FuelCapacity: 100, CurrentFuel: 92, Status: models.VehicleEnRoute},
			{ID: "v3", WarehouseID: "wh2", FuelCapacity: 100, CurrentFuel: 78, Status: models.VehicleAvailable},
		},
		Deliveries: []models.Delivery{
			{ID: "d1", PickupLocationID: "wh1", DropoffLocationID: "dest1", Status: models.DeliveryInTransit, AssignedVehicleID: "v2", EstimatedMinutes: intPtr(45)},
			{ID: "d2", PickupLocationID: "wh2", DropoffLocationID: "dest2", Status: models.DeliveryPending},
		},
	}
}

func kinds(actions []Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Kind())
	}
	return out
}

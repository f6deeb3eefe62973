package fleet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/logiroute/internal/models"
)

func TestApply_FuelIsClamped(t *testing.T) {
	tests := []struct {
		name     string
		fuel     float64
		expected float64
	}{
		{"above max", 150, 100},
		{"below min", -30, 0},
		{"in range", 55, 55},
		{"exact threshold", 20, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _, err := Apply(testState(), SetVehicleFuel{VehicleID: "v1", Fuel: tt.fuel})
			require.NoError(t, err)
			v, ok := next.Vehicle("v1")
			require.True(t, ok)
			assert.Equal(t, tt.expected, v.CurrentFuel)
			assert.GreaterOrEqual(t, v.CurrentFuel, models.MinFuel)
			assert.LessOrEqual(t, v.CurrentFuel, models.MaxFuel)
		})
	}
}

func TestApply_LowFuelForcesMaintenance(t *testing.T) {
	next, applied, err := Apply(testState(), SetVehicleFuel{VehicleID: "v1", Fuel: 12})
	require.NoError(t, err)

	v, _ := next.Vehicle("v1")
	assert.Equal(t, 12.0, v.CurrentFuel)
	assert.Equal(t, models.VehicleMaintenance, v.Status)
	assert.Equal(t, []string{KindSetVehicleFuel, KindSetVehicleStatus}, kinds(applied))
}

func TestApply_LowFuelAlreadyInMaintenance(t *testing.T) {
	s := testState()
	s.Vehicles[0].Status = models.VehicleMaintenance

	next, applied, err := Apply(s, SetVehicleFuel{VehicleID: "v1", Fuel: 5})
	require.NoError(t, err)

	v, _ := next.Vehicle("v1")
	assert.Equal(t, 5.0, v.CurrentFuel)
	assert.Equal(t, models.VehicleMaintenance, v.Status)
	assert.Equal(t, []string{KindSetVehicleFuel}, kinds(applied))
}

func TestApply_MaintenanceReleasesDelivery(t *testing.T) {
	next, applied, err := Apply(testState(), SetVehicleStatus{VehicleID: "v2", Status: models.VehicleMaintenance})
	require.NoError(t, err)

	d, _ := next.Delivery("d1")
	assert.Equal(t, models.DeliveryPending, d.Status)
	assert.Empty(t, d.AssignedVehicleID)

	v, _ := next.Vehicle("v2")
	assert.Equal(t, models.VehicleMaintenance, v.Status)
	assert.Equal(t, []string{KindSetVehicleStatus, KindUpdateDelivery}, kinds(applied))
}

func TestApply_MaintenanceIgnoresDeliveredJobs(t *testing.T) {
	s := testState()
	s.Deliveries[0].Status = models.DeliveryDelivered

	next, applied, err := Apply(s, SetVehicleStatus{VehicleID: "v2", Status: models.VehicleMaintenance})
	require.NoError(t, err)

	d, _ := next.Delivery("d1")
	assert.Equal(t, models.DeliveryDelivered, d.Status)
	assert.Equal(t, "v2", d.AssignedVehicleID)
	assert.Len(t, applied, 1)
}

func TestApply_LowFuelCascadeOrder(t *testing.T) {
	next, applied, err := Apply(testState(), SetVehicleFuel{VehicleID: "v2", Fuel: 10})
	require.NoError(t, err)

	require.Len(t, applied, 3)
	assert.Equal(t, SetVehicleFuel{VehicleID: "v2", Fuel: 10}, applied[0])
	assert.Equal(t, SetVehicleStatus{VehicleID: "v2", Status: models.VehicleMaintenance}, applied[1])
	assert.Equal(t, UpdateDelivery{DeliveryID: "d1", Status: models.DeliveryPending}, applied[2])

	v, _ := next.Vehicle("v2")
	assert.Equal(t, models.VehicleMaintenance, v.Status)
	assert.Equal(t, 10.0, v.CurrentFuel)

	d, _ := next.Delivery("d1")
	assert.Equal(t, models.DeliveryPending, d.Status)
	assert.Empty(t, d.AssignedVehicleID)
}

func TestApply_InTransitComputesEstimate(t *testing.T) {
	s := testState()
	s.Deliveries[0] = models.Delivery{ID: "d1", PickupLocationID: "wh1", DropoffLocationID: "dest1", Status: models.DeliveryAssigned, AssignedVehicleID: "v1"}

	next, applied, err := Apply(s, UpdateDelivery{DeliveryID: "d1", Status: models.DeliveryInTransit, VehicleID: "v1"})
	require.NoError(t, err)

	distance := math.Sqrt(math.Pow(40.7128-40.7505, 2)+math.Pow(-74.0060+73.9934, 2)) * 111
	expected := int(math.Round(distance * 2))

	d, _ := next.Delivery("d1")
	require.NotNil(t, d.EstimatedMinutes)
	assert.Equal(t, expected, *d.EstimatedMinutes)
	assert.Positive(t, *d.EstimatedMinutes)
	assert.Equal(t, 9, *d.EstimatedMinutes)

	v, _ := next.Vehicle("v1")
	assert.Equal(t, models.VehicleEnRoute, v.Status)
	assert.Equal(t, []string{KindUpdateDelivery, KindSetVehicleStatus}, kinds(applied))
}

func TestApply_EstimateKeptWhenLocationUnknown(t *testing.T) {
	s := testState()
	s.Deliveries[1] = models.Delivery{ID: "d2", PickupLocationID: "wh2", DropoffLocationID: "nowhere", Status: models.DeliveryAssigned, AssignedVehicleID: "v3", EstimatedMinutes: intPtr(30)}

	next, _, err := Apply(s, UpdateDelivery{DeliveryID: "d2", Status: models.DeliveryInTransit, VehicleID: "v3"})
	require.NoError(t, err)

	d, _ := next.Delivery("d2")
	require.NotNil(t, d.EstimatedMinutes)
	assert.Equal(t, 30, *d.EstimatedMinutes)
	assert.Equal(t, models.DeliveryInTransit, d.Status)
}

func TestApply_EstimateUntouchedOutsideTransit(t *testing.T) {
	next, _, err := Apply(testState(), UpdateDelivery{DeliveryID: "d1", Status: models.DeliveryAssigned, VehicleID: "v2"})
	require.NoError(t, err)

	d, _ := next.Delivery("d1")
	require.NotNil(t, d.EstimatedMinutes)
	assert.Equal(t, 45, *d.EstimatedMinutes)
}

func TestApply_DeliveredFreesVehicle(t *testing.T) {
	next, applied, err := Apply(testState(), UpdateDelivery{DeliveryID: "d1", Status: models.DeliveryDelivered, VehicleID: "v2"})
	require.NoError(t, err)

	v, _ := next.Vehicle("v2")
	assert.Equal(t, models.VehicleAvailable, v.Status)
	assert.Equal(t, []string{KindUpdateDelivery, KindSetVehicleStatus, KindSetVehicleStatus}, kinds(applied))

	d, _ := next.Delivery("d1")
	assert.Equal(t, models.DeliveryDelivered, d.Status)
}

func TestApply_DeliveredWithoutVehicleInActionStillFreesPrevious(t *testing.T) {
	next, applied, err := Apply(testState(), UpdateDelivery{DeliveryID: "d1", Status: models.DeliveryDelivered})
	require.NoError(t, err)

	v, _ := next.Vehicle("v2")
	assert.Equal(t, models.VehicleAvailable, v.Status)
	assert.Equal(t, SetVehicleStatus{VehicleID: "v2", Status: models.VehicleAvailable}, applied[1])
}

func TestApply_AssignKeepsVehicleAvailable(t *testing.T) {
	next, _, err := Apply(testState(), AssignVehicle("d2", "v3"))
	require.NoError(t, err)

	d, _ := next.Delivery("d2")
	assert.Equal(t, models.DeliveryAssigned, d.Status)
	assert.Equal(t, "v3", d.AssignedVehicleID)

	v, _ := next.Vehicle("v3")
	assert.Equal(t, models.VehicleAvailable, v.Status)
}

func TestApply_UnknownIDsAreNoOps(t *testing.T) {
	s := testState()
	for _, a := range []Action{
		SetVehicleStatus{VehicleID: "ghost", Status: models.VehicleMaintenance},
		SetVehicleFuel{VehicleID: "ghost", Fuel: 1},
		UpdateDelivery{DeliveryID: "ghost", Status: models.DeliveryDelivered},
	} {
		next, applied, err := Apply(s, a)
		require.NoError(t, err)
		assert.Empty(t, applied, a.Kind())
		assert.Equal(t, s, next, a.Kind())
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := testState()
	_, _, err := Apply(s, SetVehicleFuel{VehicleID: "v2", Fuel: 0})
	require.NoError(t, err)
	assert.Equal(t, testState(), s)
}

type echoAction struct{}

func (echoAction) Kind() string { return "echo" }

func (a echoAction) apply(*State) ([]Action, bool) { return []Action{a}, true }

func TestApply_CascadeLimit(t *testing.T) {
	s := testState()
	next, applied, err := Apply(s, echoAction{})
	assert.ErrorIs(t, err, ErrCascadeLimit)
	assert.Nil(t, applied)
	assert.Equal(t, s, next)
}

func TestEstimateMinutes(t *testing.T) {
	a := models.Location{Lat: 0, Lon: 0}
	b := models.Location{Lat: 0, Lon: 1}
	assert.Equal(t, 222, EstimateMinutes(a, b))
	assert.Equal(t, 0, EstimateMinutes(a, a))
}

func TestApply_ChangeDeliveryStatusResolvesAgainstState(t *testing.T) {
	next, applied, err := Apply(testState(), ChangeDeliveryStatus{DeliveryID: "d1", Status: models.DeliveryDelivered})
	require.NoError(t, err)
	require.NotEmpty(t, applied)
	assert.Equal(t, UpdateDelivery{DeliveryID: "d1", Status: models.DeliveryDelivered, VehicleID: "v2"}, applied[0])

	v, _ := next.Vehicle("v2")
	assert.Equal(t, models.VehicleAvailable, v.Status)
}

func TestChangeStatus_PendingReleasesVehicle(t *testing.T) {
	d := models.Delivery{ID: "d2", Status: models.DeliveryAssigned, AssignedVehicleID: "v1"}
	assert.Equal(t, UpdateDelivery{DeliveryID: "d2", Status: models.DeliveryPending}, ChangeStatus(d, models.DeliveryPending))
	assert.Equal(t, UpdateDelivery{DeliveryID: "d2", Status: models.DeliveryInTransit, VehicleID: "v1"}, ChangeStatus(d, models.DeliveryInTransit))
}

package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/logiroute/internal/fleet"
	"github.com/ukydev/logiroute/internal/models"
)

type staticState struct{ state fleet.State }

func (s staticState) Snapshot() fleet.State { return s.state }

func testMetrics(t *testing.T) *Metrics {
	t.Helper()
	state, err := fleet.DefaultState()
	require.NoError(t, err)
	return New(staticState{state: state})
}

func TestMetrics_CountsAppliedByKind(t *testing.T) {
	m := testMetrics(t)
	applied := []fleet.Action{
		fleet.SetVehicleFuel{VehicleID: "v2", Fuel: 10},
		fleet.SetVehicleStatus{VehicleID: "v2", Status: models.VehicleMaintenance},
		fleet.UpdateDelivery{DeliveryID: "d1", Status: models.DeliveryPending},
	}
	m.Applied(context.Background(), applied[0], applied)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.applied.WithLabelValues(fleet.KindSetVehicleFuel)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.applied.WithLabelValues(fleet.KindSetVehicleStatus)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.applied.WithLabelValues(fleet.KindUpdateDelivery)))
}

func TestMetrics_CountsRejectionsByReason(t *testing.T) {
	m := testMetrics(t)
	root := fleet.UpdateDelivery{DeliveryID: "d2", Status: models.DeliveryDelivered}
	m.Rejected(context.Background(), root, &fleet.InvalidTransitionError{DeliveryID: "d2", Reason: models.ErrStatusSkipped})
	m.Rejected(context.Background(), root, fmt.Errorf("wrapped: %w", fleet.ErrVehicleUnavailable))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues(fleet.KindUpdateDelivery, "invalid_transition")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues(fleet.KindUpdateDelivery, "vehicle_unavailable")))
}

func TestMetrics_HandlerServesGauges(t *testing.T) {
	m := testMetrics(t)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "logiroute_vehicles_total 3")
	assert.Contains(t, body, "logiroute_vehicles_available 2")
	assert.Contains(t, body, "logiroute_deliveries_active 2")
	assert.Contains(t, body, "logiroute_vehicles_assignable 2")
}

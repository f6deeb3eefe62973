package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/logiroute/internal/fleet"
	"github.com/ukydev/logiroute/internal/middleware"
	"github.com/ukydev/logiroute/internal/models"
)

// FleetHandler serves the dispatch dashboard API over a fleet.Store.
type FleetHandler struct {
	store  *fleet.Store
	logger *log.Logger
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(store *fleet.Store, logger *log.Logger) *FleetHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &FleetHandler{store: store, logger: logger}
}

type statusRequest struct {
	Status string `json:"status"`
}

type fuelRequest struct {
	Fuel *float64 `json:"fuel"`
}

type assignRequest struct {
	VehicleID string `json:"vehicle_id"`
}

// VehicleResult is the response to a vehicle mutation.
type VehicleResult struct {
	Vehicle fleet.VehicleView `json:"vehicle"`
	Applied []fleet.Step      `json:"applied"`
}

// DeliveryResult is the response to a delivery mutation.
type DeliveryResult struct {
	Delivery fleet.DeliveryView `json:"delivery"`
	Applied  []fleet.Step       `json:"applied"`
}

// MapView is the data behind the map panel.
type MapView struct {
	Markers []fleet.Marker `json:"markers"`
	Routes  []fleet.Route  `json:"routes"`
}

// Dashboard returns the summary counts.
func (h *FleetHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fleet.Summarize(h.store.Snapshot()))
}

// ListLocations returns every warehouse and destination.
func (h *FleetHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot().Locations)
}

// ListVehicles returns every vehicle with its control flags.
func (h *FleetHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fleet.VehicleViews(h.store.Snapshot()))
}

// ListAvailableVehicles returns the vehicles that may take a new delivery.
func (h *FleetHandler) ListAvailableVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fleet.AvailableVehicles(h.store.Snapshot()))
}

// ListDeliveries returns every delivery with its location names.
func (h *FleetHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fleet.DeliveryViews(h.store.Snapshot()))
}

// Map returns the location markers and the in-transit routes.
func (h *FleetHandler) Map(w http.ResponseWriter, r *http.Request) {
	s := h.store.Snapshot()
	writeJSON(w, http.StatusOK, MapView{Markers: fleet.Markers(s), Routes: fleet.Routes(s)})
}

// DeliveryOptions returns the control state of one delivery.
func (h *FleetHandler) DeliveryOptions(w http.ResponseWriter, r *http.Request) {
	opts, ok := fleet.DeliveryOptions(h.store.Snapshot(), r.PathValue("id"))
	if !ok {
		http.Error(w, "Delivery not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// UpdateVehicleStatus sets the status of a vehicle.
func (h *FleetHandler) UpdateVehicleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.store.Snapshot().Vehicle(id); !ok {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return
	}

	var req statusRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	action := fleet.SetVehicleStatus{VehicleID: id, Status: models.VehicleStatus(req.Status)}
	h.dispatchVehicle(w, r, id, action)
}

// UpdateVehicleFuel sets the fuel level of a vehicle.
func (h *FleetHandler) UpdateVehicleFuel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.store.Snapshot().Vehicle(id); !ok {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return
	}

	var req fuelRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Fuel == nil {
		http.Error(w, "fuel is required", http.StatusBadRequest)
		return
	}

	h.dispatchVehicle(w, r, id, fleet.SetVehicleFuel{VehicleID: id, Fuel: *req.Fuel})
}

// AssignDeliveryVehicle handles the vehicle selector of a delivery. An empty
// vehicle id returns the delivery to pending.
func (h *FleetHandler) AssignDeliveryVehicle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.store.Snapshot().Delivery(id); !ok {
		http.Error(w, "Delivery not found", http.StatusNotFound)
		return
	}

	var req assignRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.VehicleID != "" {
		if _, ok := h.store.Snapshot().Vehicle(req.VehicleID); !ok {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
	}

	h.dispatchDelivery(w, r, id, fleet.AssignVehicle(id, req.VehicleID))
}

// UpdateDeliveryStatus handles the status selector of a delivery, keeping
// whatever vehicle it holds when the change is applied.
func (h *FleetHandler) UpdateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.store.Snapshot().Delivery(id); !ok {
		http.Error(w, "Delivery not found", http.StatusNotFound)
		return
	}

	var req statusRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.dispatchDelivery(w, r, id, fleet.ChangeDeliveryStatus{DeliveryID: id, Status: models.DeliveryStatus(req.Status)})
}

func (h *FleetHandler) dispatchVehicle(w http.ResponseWriter, r *http.Request, id string, action fleet.Action) {
	applied, ok := h.dispatch(w, r, action)
	if !ok {
		return
	}
	s := h.store.Snapshot()
	v, _ := s.Vehicle(id)
	writeJSON(w, http.StatusOK, VehicleResult{Vehicle: fleet.NewVehicleView(s, v), Applied: fleet.Steps(applied)})
}

func (h *FleetHandler) dispatchDelivery(w http.ResponseWriter, r *http.Request, id string, action fleet.Action) {
	applied, ok := h.dispatch(w, r, action)
	if !ok {
		return
	}
	s := h.store.Snapshot()
	d, _ := s.Delivery(id)
	writeJSON(w, http.StatusOK, DeliveryResult{Delivery: fleet.NewDeliveryView(s, d), Applied: fleet.Steps(applied)})
}

func (h *FleetHandler) dispatch(w http.ResponseWriter, r *http.Request, action fleet.Action) ([]fleet.Action, bool) {
	applied, err := h.store.Dispatch(r.Context(), action)
	if err == nil {
		return applied, true
	}

	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithFields(log.Fields{
			"request_id": middleware.RequestIDFromContext(r.Context()),
			"kind":       action.Kind(),
		}).WithError(err).Error("dispatch failed")
	}
	http.Error(w, err.Error(), status)
	return nil, false
}

// errorStatus maps a dispatch error to an HTTP status code.
func errorStatus(err error) int {
	var transition *fleet.InvalidTransitionError
	switch {
	case errors.As(err, &transition), errors.Is(err, fleet.ErrVehicleUnavailable):
		return http.StatusConflict
	case errors.Is(err, fleet.ErrUnknownStatus), errors.Is(err, fleet.ErrInvalidFuel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

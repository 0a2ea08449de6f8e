package controllers

import (
	"net/http"

	"github.com/servicelane/servicelane-backend/api/responses"
	"github.com/servicelane/servicelane-backend/api/validators"
	"github.com/servicelane/servicelane-backend/internal/vehicles"
	"github.com/servicelane/servicelane-backend/pkg/logger"
)

type createVehicleRequest struct {
	PlateNumber string  `json:"plate_number" validate:"required"`
	Make        *string `json:"make"`
	Model       *string `json:"model"`
	Year        *int    `json:"year"`
}

type updateVehicleRequest struct {
	PlateNumber *string `json:"plate_number"`
	Make        *string `json:"make"`
	Model       *string `json:"model"`
	Year        *int    `json:"year"`
}

func VehicleCreate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		customerID, err := parseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createVehicleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicle, err := svc.Create(r.Context(), principal, vehicles.CreateVehicleInput{
			CustomerID:  customerID,
			PlateNumber: req.PlateNumber,
			Make:        req.Make,
			Model:       req.Model,
			Year:        req.Year,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toVehicleDTO(vehicle))
	}
}

func VehicleUpdate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		vehicleID, err := parseUUIDParam(r, "vehicleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateVehicleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicle, err := svc.Update(r.Context(), principal, vehicleID, vehicles.UpdateVehicleInput{
			PlateNumber: req.PlateNumber,
			Make:        req.Make,
			Model:       req.Model,
			Year:        req.Year,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toVehicleDTO(vehicle))
	}
}

func VehicleDelete(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		vehicleID, err := parseUUIDParam(r, "vehicleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), principal, vehicleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func VehicleDetail(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		vehicleID, err := parseUUIDParam(r, "vehicleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicle, err := svc.GetByID(r.Context(), principal, vehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toVehicleDTO(vehicle))
	}
}

func VehicleList(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		customerID, err := parseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByCustomer(r.Context(), principal, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos := make([]vehicleDTO, 0, len(list))
		for i := range list {
			dtos = append(dtos, toVehicleDTO(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{"vehicles": dtos})
	}
}

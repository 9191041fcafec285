package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"salon-sync-server/internal/domain"
	"salon-sync-server/internal/repository"
	"salon-sync-server/internal/service"
	"salon-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type ReservationHandler struct {
	service  *service.ReservationService
	validate *validator.Validate
}

func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{
		service:  svc,
		validate: validator.New(),
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	res, err := h.service.Create(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTimeSlot) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "failed to create reservation")
		return
	}

	response.Created(w, res)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		response.BadRequest(w, "reservation id is required")
		return
	}

	res, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(w, "reservation not found")
			return
		}
		response.InternalError(w, "failed to fetch reservation")
		return
	}

	response.Success(w, res)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	if !validDate(start) || !validDate(end) {
		response.BadRequest(w, "start and end must be dates in the form 2006-01-02")
		return
	}

	reservations, err := h.service.GetByDateRange(start, end)
	if err != nil {
		response.InternalError(w, "failed to list reservations")
		return
	}

	response.Success(w, reservations)
}

// Update is the optimistic-locked write. A stale expected_version yields 409
// with the store's current copy attached, so the caller can run
// /conflicts/detect against its own stale read without another round-trip.
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		response.BadRequest(w, "reservation id is required")
		return
	}

	var req domain.UpdateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	res, err := h.service.UpdateWithLock(id, req.Patch(), req.ExpectedVersion, req.StaffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(w, "reservation not found")
			return
		}
		var conflict *service.ConflictError
		if errors.As(err, &conflict) {
			response.JSON(w, http.StatusConflict, map[string]interface{}{
				"error":            "version_conflict",
				"remote":           conflict.Remote,
				"expected_version": req.ExpectedVersion,
				"actual_version":   conflict.Remote.UpdatedAt,
			})
			return
		}
		response.InternalError(w, "failed to update reservation")
		return
	}

	response.Success(w, res)
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		response.BadRequest(w, "reservation id is required")
		return
	}

	if err := h.service.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(w, "reservation not found")
			return
		}
		response.InternalError(w, "failed to delete reservation")
		return
	}

	response.Success(w, map[string]string{"message": "reservation deleted"})
}

func (h *ReservationHandler) BatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req domain.BatchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result := h.service.BatchUpdate(req.Items, req.StaffID)

	response.Success(w, result)
}

func validDate(s string) bool {
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}

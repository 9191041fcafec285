package handler

import (
	"encoding/json"
	"net/http"

	"salon-sync-server/internal/domain"
	"salon-sync-server/internal/service"
	"salon-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

// ConflictHandler exposes detection and resolution as pure computations: the
// caller posts both copies and gets back the verdict, nothing is written.
type ConflictHandler struct {
	conflicts *service.ConflictService
	validate  *validator.Validate
}

func NewConflictHandler(conflicts *service.ConflictService) *ConflictHandler {
	return &ConflictHandler{
		conflicts: conflicts,
		validate:  validator.New(),
	}
}

func (h *ConflictHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req domain.DetectConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	info := h.conflicts.Detect(req.Local, req.Remote)
	if info == nil {
		response.Success(w, map[string]interface{}{"conflict": nil})
		return
	}

	response.Success(w, map[string]interface{}{
		"conflict": info,
		"summary":  h.conflicts.Summarize(info),
	})
}

func (h *ConflictHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req domain.ResolveConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	info := h.conflicts.Detect(req.Local, req.Remote)
	if info == nil {
		response.Success(w, map[string]interface{}{"conflict": nil})
		return
	}

	merge, err := h.conflicts.Resolve(info, req.Strategy)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.Success(w, map[string]interface{}{
		"conflict": info,
		"merge":    merge,
		"summary":  h.conflicts.Summarize(info),
	})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/kynes/landsraad/internal/auth"
	"github.com/kynes/landsraad/internal/service"
	"github.com/kynes/landsraad/pkg/arrakis"
)

// BattleHandler exposes the battle phase: submitting responses, reading
// pending requests, the live snapshot, and the event transcript.
type BattleHandler struct {
	gameSvc   *service.GameService
	battleSvc *service.BattleService
}

// NewBattleHandler creates a BattleHandler.
func NewBattleHandler(gameSvc *service.GameService, battleSvc *service.BattleService) *BattleHandler {
	return &BattleHandler{gameSvc: gameSvc, battleSvc: battleSvc}
}

// SubmitResponse handles POST /api/v1/games/{id}/responses
func (h *BattleHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var resp arrakis.AgentResponse
	if err := decodeJSON(r, &resp); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if resp.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}

	result, err := h.battleSvc.SubmitResponse(r.Context(), gameID, userID, resp)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			status = http.StatusNotFound
		case errors.Is(err, service.ErrNotInGame), errors.Is(err, service.ErrWrongFaction):
			status = http.StatusForbidden
		case errors.Is(err, service.ErrNoActivePhase):
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}

	// Rejections are not transport errors: the suspension point stays open
	// and the caller corrects its submission.
	writeJSON(w, http.StatusOK, result)
}

// PendingRequests handles GET /api/v1/games/{id}/pending
func (h *BattleHandler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	pending, err := h.battleSvc.PendingRequests(r.Context(), gameID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNoActivePhase) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	if pending == nil {
		pending = []arrakis.PendingRequest{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// LiveState handles GET /api/v1/games/{id}/state
func (h *BattleHandler) LiveState(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	state, err := h.battleSvc.LiveState(r.Context(), gameID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNoActivePhase) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(state)
}

// CurrentPhase handles GET /api/v1/games/{id}/phase
func (h *BattleHandler) CurrentPhase(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	phase, err := h.battleSvc.CurrentPhase(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if phase == nil {
		writeError(w, http.StatusNotFound, "no active phase")
		return
	}
	writeJSON(w, http.StatusOK, phase)
}

// ListPhases handles GET /api/v1/games/{id}/phases
func (h *BattleHandler) ListPhases(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	phases, err := h.battleSvc.Phases(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if phases == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, phases)
}

// PhaseEvents handles GET /api/v1/phases/{id}/events
func (h *BattleHandler) PhaseEvents(w http.ResponseWriter, r *http.Request) {
	phaseID := r.PathValue("id")

	events, err := h.battleSvc.Events(r.Context(), phaseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, events)
}

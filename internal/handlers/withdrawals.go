package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/AlenaMolokova/circlepay/internal/middleware"
	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/utils"
)

type WithdrawalGetHandler struct {
	withdrawals WithdrawalService
}

func NewWithdrawalGetHandler(withdrawals WithdrawalService) *WithdrawalGetHandler {
	return &WithdrawalGetHandler{withdrawals: withdrawals}
}

func (h *WithdrawalGetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	found, err := h.withdrawals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, found)
}

type transitionResponse struct {
	Withdrawal models.WithdrawalRequest `json:"withdrawal"`
	Changed    bool                     `json:"changed"`
}

type ConfirmHandler struct {
	withdrawals WithdrawalService
}

func NewConfirmHandler(withdrawals WithdrawalService) *ConfirmHandler {
	return &ConfirmHandler{withdrawals: withdrawals}
}

func (h *ConfirmHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		utils.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id := chi.URLParam(r, "id")

	updated, changed, err := h.withdrawals.Confirm(r.Context(), id, p.Subject)
	if err != nil {
		writeError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Str("request_id", id).Str("actor", p.Subject).Bool("changed", changed).Msg("Withdrawal confirmed")
	utils.WriteJSON(w, http.StatusOK, transitionResponse{Withdrawal: updated, Changed: changed})
}

type CancelHandler struct {
	withdrawals WithdrawalService
}

func NewCancelHandler(withdrawals WithdrawalService) *CancelHandler {
	return &CancelHandler{withdrawals: withdrawals}
}

func (h *CancelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		utils.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.WriteJSONError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	id := chi.URLParam(r, "id")

	updated, changed, err := h.withdrawals.Cancel(r.Context(), id, p.Subject, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Str("request_id", id).Str("actor", p.Subject).Bool("changed", changed).Msg("Withdrawal cancelled")
	utils.WriteJSON(w, http.StatusOK, transitionResponse{Withdrawal: updated, Changed: changed})
}

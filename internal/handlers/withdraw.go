package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/utils"
	"github.com/AlenaMolokova/circlepay/internal/validation"
)

type WithdrawHandler struct {
	withdrawals WithdrawalService
}

func NewWithdrawHandler(withdrawals WithdrawalService) *WithdrawHandler {
	return &WithdrawHandler{withdrawals: withdrawals}
}

type withdrawRequest struct {
	UserID      string      `json:"user_id" validate:"required"`
	Username    string      `json:"username"`
	Amount      json.Number `json:"amount" validate:"required"`
	Method      string      `json:"method" validate:"required"`
	Destination string      `json:"destination" validate:"required"`
	Priority    bool        `json:"priority"`
}

func (h *WithdrawHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("Failed to decode withdraw request")
		utils.WriteJSONError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := validation.ParseAmount(req.Amount.String())
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.withdrawals.Submit(r.Context(), models.WithdrawalRequest{
		UserID:      req.UserID,
		Username:    req.Username,
		Amount:      amount,
		Method:      req.Method,
		Destination: req.Destination,
		Priority:    req.Priority,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, created)
}

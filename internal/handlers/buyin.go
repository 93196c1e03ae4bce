package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/AlenaMolokova/circlepay/internal/utils"
	"github.com/AlenaMolokova/circlepay/internal/validation"
)

type BuyInHandler struct {
	buyIn BuyInService
}

func NewBuyInHandler(buyIn BuyInService) *BuyInHandler {
	return &BuyInHandler{buyIn: buyIn}
}

type buyInRequest struct {
	Method string      `json:"method" validate:"required"`
	Amount json.Number `json:"amount" validate:"required"`
}

func (h *BuyInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req buyInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("Failed to decode buy-in request")
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

	result, err := h.buyIn.BuyIn(r.Context(), req.Method, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

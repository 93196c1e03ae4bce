package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/utils"
)

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := hlog.FromRequest(r)
	switch {
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrMethodDisabled):
		utils.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrInvalidMethod), errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrInvalidPayoutType):
		utils.WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		utils.WriteJSONError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrStatusConflict):
		utils.WriteJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrCredentialFailure):
		logger.Error().Err(err).Msg("Store rejected credentials")
		utils.WriteJSONError(w, http.StatusServiceUnavailable, "Store unavailable")
	default:
		logger.Error().Err(err).Msg("Request failed")
		utils.WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

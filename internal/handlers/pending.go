package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AlenaMolokova/circlepay/internal/utils"
	"github.com/AlenaMolokova/circlepay/internal/validation"
)

type PendingCreateHandler struct {
	store PendingStore
}

func NewPendingCreateHandler(store PendingStore) *PendingCreateHandler {
	return &PendingCreateHandler{store: store}
}

type pendingRequest struct {
	Owner  string      `json:"owner" validate:"required"`
	Rail   string      `json:"rail" validate:"required"`
	Amount json.Number `json:"amount" validate:"required"`
}

func (h *PendingCreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req pendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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

	intent, err := h.store.Create(req.Owner, req.Rail, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, intent)
}

type PendingGetHandler struct {
	store PendingStore
}

func NewPendingGetHandler(store PendingStore) *PendingGetHandler {
	return &PendingGetHandler{store: store}
}

func (h *PendingGetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	intent, ok := h.store.Get(chi.URLParam(r, "token"))
	if !ok {
		utils.WriteJSONError(w, http.StatusNotFound, "Not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, intent)
}

type PendingDeleteHandler struct {
	store PendingStore
}

func NewPendingDeleteHandler(store PendingStore) *PendingDeleteHandler {
	return &PendingDeleteHandler{store: store}
}

func (h *PendingDeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.store.Delete(chi.URLParam(r, "token"))
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"tradepost/internal/services"
)

type PointsHandler struct {
	Ledger   *services.LedgerService
	Recharge *services.RechargeService
}

func (h *PointsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get(":user_id")
	if userID == "" {
		http.Error(w, "Missing user ID", http.StatusBadRequest)
		return
	}

	balance, err := h.Ledger.Balance(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"balance": balance})
}

func (h *PointsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get(":user_id")
	if userID == "" {
		http.Error(w, "Missing user ID", http.StatusBadRequest)
		return
	}

	history, err := h.Ledger.History(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *PointsHandler) RequestRecharge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID     string `json:"user_id"`
		Amount     int    `json:"amount"`
		VoucherURL string `json:"voucher_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	task, err := h.Recharge.Request(r.Context(), body.UserID, body.Amount, body.VoucherURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *PointsHandler) ApproveRecharge(w http.ResponseWriter, r *http.Request) {
	h.resolveRecharge(w, r, true)
}

func (h *PointsHandler) RejectRecharge(w http.ResponseWriter, r *http.Request) {
	h.resolveRecharge(w, r, false)
}

func (h *PointsHandler) resolveRecharge(w http.ResponseWriter, r *http.Request, approve bool) {
	id := r.URL.Query().Get(":id")
	if id == "" {
		http.Error(w, "Missing task ID", http.StatusBadRequest)
		return
	}

	var body struct {
		AdminID string `json:"admin_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var err error
	if approve {
		err = h.Recharge.Approve(r.Context(), id, body.AdminID)
	} else {
		err = h.Recharge.Reject(r.Context(), id, body.AdminID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PointsHandler) PendingRecharges(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Recharge.Pending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"tradepost/internal/services"
)

type DealHandler struct {
	Service *services.DealService
}

func (h *DealHandler) PurchaseContact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PostID   string  `json:"post_id"`
		BuyerID  string  `json:"buyer_id"`
		SellerID string  `json:"seller_id"`
		Price    float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.PostID == "" || body.BuyerID == "" || body.SellerID == "" {
		http.Error(w, "Missing post_id, buyer_id or seller_id", http.StatusBadRequest)
		return
	}

	result, err := h.Service.PurchaseContact(r.Context(), body.PostID, body.BuyerID, body.SellerID, body.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *DealHandler) ConfirmDeal(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get(":id")
	if id == "" {
		http.Error(w, "Missing contact view ID", http.StatusBadRequest)
		return
	}

	var body struct {
		BuyerID string `json:"buyer_id"`
		Payload string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.ConfirmDeal(r.Context(), id, body.BuyerID, body.Payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PendingConfirmations backs the admin follow-up dashboard.
func (h *DealHandler) PendingConfirmations(w http.ResponseWriter, r *http.Request) {
	due, err := h.Service.PendingConfirmations(r.Context(), time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, due)
}

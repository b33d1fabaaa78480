package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"tradepost/internal/models"
	"tradepost/internal/services"
)

type ListingHandler struct {
	Service *services.ListingService
}

func (h *ListingHandler) PublishListing(w http.ResponseWriter, r *http.Request) {
	var input models.CreateListingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := h.Service.Publish(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

func (h *ListingHandler) RepublishListing(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get(":id")
	if id == "" {
		http.Error(w, "Missing listing ID", http.StatusBadRequest)
		return
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := h.Service.Republish(r.Context(), id, body.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) ExpireOverdue(w http.ResponseWriter, r *http.Request) {
	expired, err := h.Service.ExpireOverdue(r.Context(), time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": expired})
}

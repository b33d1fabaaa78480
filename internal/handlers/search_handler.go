package handlers

import (
	"net/http"
	"strconv"

	"tradepost/internal/models"
	"tradepost/internal/services"
)

type SearchHandler struct {
	Service *services.SearchService
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := models.SearchQuery{
		Keyword: r.URL.Query().Get("q"),
		UserID:  r.URL.Query().Get("user_id"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		query.Limit = limit
	}

	results, err := h.Service.Search(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.Suggestions(r.Context(), r.URL.Query().Get("prefix"), r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *SearchHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get(":user_id")
	if userID == "" {
		http.Error(w, "Missing user ID", http.StatusBadRequest)
		return
	}

	history, err := h.Service.History(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *SearchHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get(":user_id")
	if userID == "" {
		http.Error(w, "Missing user ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.ClearHistory(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"strconv"

	"lotto-backend/internal/middleware"
	"lotto-backend/internal/services"
	"lotto-backend/pkg/utils"
)

type PostingHandler struct {
	Service *services.PostingService
}

func NewPostingHandler(service *services.PostingService) *PostingHandler {
	return &PostingHandler{Service: service}
}

// Post handles POST /api/day-close/post?date=YYYY-MM-DD
// Runs the gate check and posts the day to the ledger atomically.
// Re-posting the same date supersedes the previous batch.
func (h *PostingHandler) Post(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(r)
	if !ok {
		http.Error(w, "Invalid date format. Use YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	storeID, _ := middleware.GetStoreIDFromContext(r.Context())
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	userName, _ := middleware.GetUserNameFromContext(r.Context())

	posting, err := h.Service.Post(r.Context(), storeID, date, userID, userName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if posting.Revision > 1 {
		status = http.StatusOK
	}
	utils.JSON(w, status, posting)
}

// Get handles GET /api/postings?date=YYYY-MM-DD
func (h *PostingHandler) Get(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(r)
	if !ok {
		http.Error(w, "Invalid date format. Use YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	storeID, _ := middleware.GetStoreIDFromContext(r.Context())

	posting, err := h.Service.Get(r.Context(), storeID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, posting)
}

// History handles GET /api/postings/history?limit=30
func (h *PostingHandler) History(w http.ResponseWriter, r *http.Request) {
	storeID, _ := middleware.GetStoreIDFromContext(r.Context())

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, _ = strconv.Atoi(s)
	}

	postings, err := h.Service.History(r.Context(), storeID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, postings)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"lotto-backend/internal/middleware"
	"lotto-backend/internal/models"
	"lotto-backend/internal/services"
	"lotto-backend/internal/timeutil"
	"lotto-backend/pkg/utils"
)

type DayCloseHandler struct {
	Service *services.DayCloseService
}

func NewDayCloseHandler(service *services.DayCloseService) *DayCloseHandler {
	return &DayCloseHandler{Service: service}
}

// dateParam returns the requested business date, defaulting to today.
func dateParam(r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return timeutil.BusinessDate(timeutil.Now()), true
	}
	if _, err := timeutil.ParseDate(date); err != nil {
		return "", false
	}
	return date, true
}

// Preview handles GET /api/day-close?date=YYYY-MM-DD
// Computes the reconciliation summary without any side effects.
func (h *DayCloseHandler) Preview(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(r)
	if !ok {
		http.Error(w, "Invalid date format. Use YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	storeID, _ := middleware.GetStoreIDFromContext(r.Context())

	summary, err := h.Service.Preview(r.Context(), storeID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, summary)
}

// FlagMissing handles POST /api/day-close/flag-missing?date=YYYY-MM-DD
// Turns "active box never counted" warnings into ledger entries.
func (h *DayCloseHandler) FlagMissing(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(r)
	if !ok {
		http.Error(w, "Invalid date format. Use YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	storeID, _ := middleware.GetStoreIDFromContext(r.Context())
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	userName, _ := middleware.GetUserNameFromContext(r.Context())

	created, err := h.Service.FlagMissingReadings(r.Context(), storeID, date, userID, userName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"flagged":   len(created),
		"anomalies": created,
	})
}

// UpsertDrawDay handles PUT /api/draw-days
// There is one draw entry per store per date; repeats replace it.
func (h *DayCloseHandler) UpsertDrawDay(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertDrawDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if storeID, ok := middleware.GetStoreIDFromContext(r.Context()); ok {
		req.StoreID = storeID
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	d, err := h.Service.UpsertDrawDay(r.Context(), &req, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, d)
}

// GetDrawDay handles GET /api/draw-days?date=YYYY-MM-DD
func (h *DayCloseHandler) GetDrawDay(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(r)
	if !ok {
		http.Error(w, "Invalid date format. Use YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	storeID, _ := middleware.GetStoreIDFromContext(r.Context())

	d, err := h.Service.GetDrawDay(r.Context(), storeID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, d)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"lotto-backend/internal/middleware"
	"lotto-backend/internal/models"
	"lotto-backend/internal/services"
	"lotto-backend/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

var validate = validator.New()

type ReadingHandler struct {
	Service *services.ReadingService
}

func NewReadingHandler(service *services.ReadingService) *ReadingHandler {
	return &ReadingHandler{Service: service}
}

// Record handles POST /api/readings
// Submits a ticket-count observation for a pack. A successful response
// may still carry anomalies; only out-of-range counts are rejected.
func (h *ReadingHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req models.RecordReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	storeID, _ := middleware.GetStoreIDFromContext(r.Context())
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	userName, _ := middleware.GetUserNameFromContext(r.Context())

	result, err := h.Service.RecordReading(r.Context(), storeID, &req, userID, userName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, result)
}

// ListByPack handles GET /api/packs/{id}/readings
func (h *ReadingHandler) ListByPack(w http.ResponseWriter, r *http.Request) {
	packID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid pack ID", http.StatusBadRequest)
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	readings, err := h.Service.ListByPack(r.Context(), packID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, readings)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"lotto-backend/internal/middleware"
	"lotto-backend/internal/models"
	"lotto-backend/internal/services"
	"lotto-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type AnomalyHandler struct {
	Service *services.AnomalyService
}

func NewAnomalyHandler(service *services.AnomalyService) *AnomalyHandler {
	return &AnomalyHandler{Service: service}
}

// List handles GET /api/anomalies?date=YYYY-MM-DD&status=open&severity=high&type=ticket_regression
func (h *AnomalyHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, _ := middleware.GetStoreIDFromContext(r.Context())

	filter := &models.AnomalyFilter{StoreID: storeID}
	q := r.URL.Query()
	if date := q.Get("date"); date != "" {
		filter.BusinessDate = date
	}
	if status := q.Get("status"); status != "" {
		filter.Status = models.AnomalyStatus(status)
	}
	if severity := q.Get("severity"); severity != "" {
		filter.Severity = models.AnomalySeverity(severity)
	}
	if typ := q.Get("type"); typ != "" {
		filter.Type = models.AnomalyType(typ)
	}

	anomalies, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, anomalies)
}

// Get handles GET /api/anomalies/{id}
func (h *AnomalyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid anomaly ID", http.StatusBadRequest)
		return
	}

	anomaly, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, anomaly)
}

// Acknowledge handles PUT /api/anomalies/{id}/acknowledge
func (h *AnomalyHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid anomaly ID", http.StatusBadRequest)
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	userName, _ := middleware.GetUserNameFromContext(r.Context())

	anomaly, err := h.Service.Acknowledge(r.Context(), id, userID, userName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, anomaly)
}

// Resolve handles PUT /api/anomalies/{id}/resolve
// A resolution note is mandatory; resolution is terminal.
func (h *AnomalyHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid anomaly ID", http.StatusBadRequest)
		return
	}

	var req models.ResolveAnomalyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	userName, _ := middleware.GetUserNameFromContext(r.Context())

	anomaly, err := h.Service.Resolve(r.Context(), id, &req, userID, userName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, anomaly)
}

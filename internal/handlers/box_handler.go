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

type BoxHandler struct {
	Service *services.BoxService
}

func NewBoxHandler(service *services.BoxService) *BoxHandler {
	return &BoxHandler{Service: service}
}

// Create handles POST /api/boxes
func (h *BoxHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBoxRequest
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

	box, err := h.Service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, box)
}

// Get handles GET /api/boxes/{id}
func (h *BoxHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid box ID", http.StatusBadRequest)
		return
	}

	box, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, box)
}

// List handles GET /api/boxes
func (h *BoxHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, _ := middleware.GetStoreIDFromContext(r.Context())

	boxes, err := h.Service.List(r.Context(), storeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, boxes)
}

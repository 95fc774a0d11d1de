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

type PackHandler struct {
	Service *services.PackService
}

func NewPackHandler(service *services.PackService) *PackHandler {
	return &PackHandler{Service: service}
}

// Create handles POST /api/packs
func (h *PackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if storeID, ok := middleware.GetStoreIDFromContext(r.Context()); ok {
		req.StoreID = storeID
	}

	pack, err := h.Service.CreatePack(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, pack)
}

// Get handles GET /api/packs/{id}
func (h *PackHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid pack ID", http.StatusBadRequest)
		return
	}

	pack, err := h.Service.GetPack(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, pack)
}

// List handles GET /api/packs
func (h *PackHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, _ := middleware.GetStoreIDFromContext(r.Context())

	packs, err := h.Service.ListPacks(r.Context(), storeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, packs)
}

// Assign handles PUT /api/packs/{id}/assign
// Moves a pack into a box. With "supersede": true the box's current
// occupant is released first; without it an occupied box conflicts.
func (h *PackHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid pack ID", http.StatusBadRequest)
		return
	}

	var req models.AssignPackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pack, warning, err := h.Service.AssignPack(r.Context(), id, req.BoxID, req.Supersede)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := map[string]interface{}{"pack": pack}
	if warning != "" {
		resp["warning"] = warning
	}
	utils.JSON(w, http.StatusOK, resp)
}

// Return handles PUT /api/packs/{id}/return
func (h *PackHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid pack ID", http.StatusBadRequest)
		return
	}

	pack, err := h.Service.ReturnPack(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, pack)
}

package handlers

import (
	"errors"
	"net/http"

	"lotto-backend/internal/models"
	"lotto-backend/pkg/utils"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Blocked postings and out-of-range rejections carry structured detail
// so the client can show exactly what went wrong.
func writeServiceError(w http.ResponseWriter, err error) {
	var blocked *models.PostingBlockedError
	if errors.As(err, &blocked) {
		utils.JSON(w, http.StatusConflict, map[string]interface{}{
			"error":     blocked.Error(),
			"anomalies": blocked.Anomalies,
		})
		return
	}

	var oor *models.OutOfRangeError
	if errors.As(err, &oor) {
		utils.JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  oor.Error(),
			"low":    oor.Low,
			"high":   oor.High,
			"ticket": oor.TicketNumber,
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrConflict):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrPackClosed), errors.Is(err, models.ErrState):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrValidation):
		utils.Error(w, http.StatusBadRequest, err.Error())
	default:
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

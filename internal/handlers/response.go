package handlers

import (
	"errors"
	"net/http"

	"github.com/KidOfCoding/TripManagement/internal/db"
	"github.com/KidOfCoding/TripManagement/internal/middleware"
	"github.com/KidOfCoding/TripManagement/internal/reports"
	"github.com/KidOfCoding/TripManagement/internal/trips"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// writeError maps service errors onto status codes. Anything unexpected is
// logged and hidden behind a generic message.
func (h *TripHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trips.ErrValidation), errors.Is(err, reports.ErrInvalidRange):
		errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrNotFound):
		errorResponse(c, http.StatusNotFound, "Trip not found")
	case errors.Is(err, db.ErrDuplicateKey):
		errorResponse(c, http.StatusConflict, "Conflicting record, retry the request")
	default:
		h.log.WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"account_id": middleware.AccountID(c),
			"trip_id":    c.Param("id"),
		}).WithError(err).Error("Request failed")
		errorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

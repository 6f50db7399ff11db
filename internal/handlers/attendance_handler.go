package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foroapp/server/internal/helpers"
	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/services"
)

func ToggleAttendance(as *services.AttendanceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID := helpers.StringTrim(c.Param("id"))
		if eventID == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("event ID is required"))
			return
		}

		nowAttending, err := as.Toggle(c.Request.Context(), eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"now_attending": nowAttending}, ""))
	}
}

func GetAttendeeCount(as *services.AttendanceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID := helpers.StringTrim(c.Param("id"))
		if eventID == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("event ID is required"))
			return
		}

		count, err := as.Count(c.Request.Context(), eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"count": count}, ""))
	}
}

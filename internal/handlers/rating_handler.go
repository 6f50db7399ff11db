package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foroapp/server/internal/helpers"
	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/services"
)

func SubmitRating(rs *services.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID := helpers.StringTrim(c.Param("id"))
		if eventID == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("event ID is required"))
			return
		}

		var reqBody struct {
			Value *int `json:"value" binding:"required"`
		}
		if err := c.ShouldBindJSON(&reqBody); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid request body: "+err.Error()))
			return
		}

		if err := rs.Submit(c.Request.Context(), eventID, *reqBody.Value); err != nil {
			respondError(c, err)
			return
		}

		// Echo the fresh average so the rating bar can update in place.
		average, err := rs.Average(c.Request.Context(), eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"average": average}, "Rating saved"))
	}
}

func GetAverageRating(rs *services.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID := helpers.StringTrim(c.Param("id"))
		if eventID == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("event ID is required"))
			return
		}

		average, err := rs.Average(c.Request.Context(), eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"average": average}, ""))
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foroapp/server/internal/helpers"
	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/services"
)

func AddComment(cs *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID := helpers.StringTrim(c.Param("id"))
		if eventID == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("event ID is required"))
			return
		}

		var reqBody struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&reqBody); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid request body: "+err.Error()))
			return
		}

		comment, err := cs.Append(c.Request.Context(), eventID, reqBody.Text)
		if err != nil {
			respondError(c, err)
			return
		}
		if comment == nil {
			// Whitespace-only text: nothing was written.
			c.JSON(http.StatusOK, models.SuccessResponse(nil, "Empty comment ignored"))
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(comment, "Comment added"))
	}
}

func ListComments(cs *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID := helpers.StringTrim(c.Param("id"))
		if eventID == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("event ID is required"))
			return
		}

		comments, err := cs.List(c.Request.Context(), eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(comments, ""))
	}
}

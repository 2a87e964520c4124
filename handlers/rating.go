package handlers

import (
	"net/http"

	"joservice/models"
	"joservice/services/rating"
	"joservice/utils"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	Service rating.RatingService
}

func NewRatingHandler(svc rating.RatingService) *RatingHandler {
	return &RatingHandler{Service: svc}
}

func (h *RatingHandler) SubmitRatingHandler(c *gin.Context) {
	actor, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req models.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	r, err := h.Service.SubmitRating(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rating": r})
}

func (h *RatingHandler) RemoveRatingHandler(c *gin.Context) {
	actor, ok := mustPrincipal(c)
	if !ok {
		return
	}
	if err := h.Service.RemoveRating(c.Request.Context(), actor, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RatingHandler) GetProviderRatingHandler(c *gin.Context) {
	summary, err := h.Service.GetProviderRating(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

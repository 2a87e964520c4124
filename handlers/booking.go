package handlers

import (
	"net/http"

	"joservice/models"
	"joservice/services/booking"
	"joservice/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	actor, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	b, err := h.Service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	actor, ok := mustPrincipal(c)
	if !ok {
		return
	}
	view, err := h.Service.GetBooking(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListBookingsHandler serves the caller's own bookings; the route decides which role may call it.
func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	actor, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var opts models.BookingListOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	page, err := h.Service.ListForParty(c.Request.Context(), actor, opts)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// TransitionBookingHandler applies PATCH /bookings/:id/status.
func (h *BookingHandler) TransitionBookingHandler(c *gin.Context) {
	actor, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if !req.Status.Valid() {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "unknown booking status "+string(req.Status))
		return
	}

	bookingID := c.Param("id")
	b, err := h.Service.RequestTransition(c.Request.Context(), bookingID, actor, req.Status)
	if err != nil {
		getLogger(c).Info("booking transition rejected",
			zap.String("bookingId", bookingID),
			zap.String("target", string(req.Status)),
			zap.String("actor", actor.String()),
			zap.String("code", string(utils.CodeOf(err))))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking":            b,
		"allowedTransitions": booking.AllowedTransitions(b.Status, actor.Role),
	})
}

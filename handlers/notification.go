package handlers

import (
	"net/http"

	"joservice/models"
	"joservice/services/notification"
	"joservice/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Service notification.NotificationService
}

func NewNotificationHandler(svc notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: svc}
}

func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	recipient, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var opts models.NotificationListOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	page, err := h.Service.List(c.Request.Context(), recipient, opts)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *NotificationHandler) UnreadCountHandler(c *gin.Context) {
	recipient, ok := mustPrincipal(c)
	if !ok {
		return
	}
	count, err := h.Service.UnreadCount(c.Request.Context(), recipient)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

func (h *NotificationHandler) MarkAsReadHandler(c *gin.Context) {
	recipient, ok := mustPrincipal(c)
	if !ok {
		return
	}
	n, err := h.Service.MarkAsRead(c.Request.Context(), recipient, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": n})
}

func (h *NotificationHandler) MarkAllAsReadHandler(c *gin.Context) {
	recipient, ok := mustPrincipal(c)
	if !ok {
		return
	}
	changed, err := h.Service.MarkAllAsRead(c.Request.Context(), recipient)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": changed})
}

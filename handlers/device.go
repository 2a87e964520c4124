package handlers

import (
	"net/http"
	"time"

	"joservice/database/repository"
	"joservice/models"
	"joservice/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeviceHandler manages the FCM tokens used when a principal has no live channel.
type DeviceHandler struct {
	Devices repository.DeviceRepository
}

func NewDeviceHandler(devices repository.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{Devices: devices}
}

func (h *DeviceHandler) RegisterDeviceHandler(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req models.FCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	device := &models.Device{
		PrincipalID:   p.ID,
		PrincipalRole: p.Role,
		FCMToken:      req.Token,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := h.Devices.Upsert(c.Request.Context(), device); err != nil {
		utils.RespondError(c, utils.WrapError(err, utils.CodePersistence, "failed to register device"))
		return
	}
	getLogger(c).Debug("device token registered", zap.String("principal", p.String()))
	c.Status(http.StatusNoContent)
}

func (h *DeviceHandler) UnregisterDeviceHandler(c *gin.Context) {
	if _, ok := mustPrincipal(c); !ok {
		return
	}
	var req models.FCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if err := h.Devices.Remove(c.Request.Context(), req.Token); err != nil {
		utils.RespondError(c, utils.WrapError(err, utils.CodePersistence, "failed to remove device"))
		return
	}
	c.Status(http.StatusNoContent)
}

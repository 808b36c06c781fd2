package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"iothub/internal/registry"
	"iothub/internal/service"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK         = "ok"
	statusRegistered = "registered"
	statusDeleted    = "deleted"

	errDeviceNotFound  = "device not found"
	errDeleteDevice    = "failed to delete device"
	errLoadHistory     = "failed to load history"
	errLoadStats       = "failed to load stats"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Request DTO for manual device registration.
type registerRequest struct {
	DeviceID     string         `json:"device_id" binding:"required"`
	Name         string         `json:"device_name" binding:"required"`
	Type         string         `json:"device_type" binding:"required"`
	Location     string         `json:"location,omitempty"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
}

// RegisterDeviceRequest is an exported model for Swagger docs of the registration payload.
type RegisterDeviceRequest struct {
	DeviceID string `json:"device_id" example:"esp32-greenhouse-01"`
	// Human-readable device name shown on the dashboard
	Name string `json:"device_name" example:"Greenhouse Sensor"`
	Type string `json:"device_type" example:"esp32"`
	// Optional physical location
	Location     string         `json:"location,omitempty" example:"greenhouse"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	connected := false
	if h.transportUp != nil {
		connected = h.transportUp()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         statusOK,
		"mqtt_connected": connected,
	})
}

// @Summary      List devices
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	devices := h.services.Devices.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":   len(devices),
		"devices": devices,
	})
}

// @Summary      Get one device
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{id} [get]
// @Security     BearerAuth
func (h *Handler) getDevice(c *gin.Context) {
	dev, err := h.services.Devices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errDeviceNotFound})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load device", "device_get_failed", err, "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, dev)
}

// @Summary      Register device
// @Description  Manual registration from the dashboard; same upsert semantics as a device register message.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        body  body   RegisterDeviceRequest  true  "Device payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/devices [post]
// @Security     BearerAuth
func (h *Handler) registerDevice(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	dev, err := h.services.Devices.Register(c.Request.Context(), service.RegisterParams{
		DeviceID:     req.DeviceID,
		Name:         req.Name,
		Type:         req.Type,
		Location:     req.Location,
		Capabilities: req.Capabilities,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to register device", "device_register_failed", err, "device_id", req.DeviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusRegistered, "device": dev})
}

// @Summary      Delete device
// @Description  Removes the device from the registry; its historical samples are kept.
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteDevice(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Devices.Remove(c.Request.Context(), id); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errDeleteDevice, "device_delete_failed", err, "device_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDeleted})
}

// @Summary      Device history
// @Description  Persisted samples for the last N hours (default 24).
// @Tags         devices
// @Produce      json
// @Param        id     path   string  true   "Device ID"
// @Param        hours  query  int     false  "Window in hours"  example(24)
// @Success      200  {object}  map[string]interface{}  "count, samples"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{id}/history [get]
// @Security     BearerAuth
func (h *Handler) deviceHistory(c *gin.Context) {
	id := c.Param("id")

	hours := 0
	if qs := c.Query("hours"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'hours'; expected an integer"})
			return
		}
		hours = v
	}

	samples, err := h.services.Devices.History(c.Request.Context(), id, hours)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadHistory, "device_history_failed", err, "device_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(samples),
		"samples": samples,
	})
}

// @Summary      Device stats
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{id}/stats [get]
// @Security     BearerAuth
func (h *Handler) deviceStats(c *gin.Context) {
	id := c.Param("id")
	stats, err := h.services.Devices.Stats(c.Request.Context(), id)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadStats, "device_stats_failed", err, "device_id", id)
		return
	}
	c.JSON(http.StatusOK, stats)
}

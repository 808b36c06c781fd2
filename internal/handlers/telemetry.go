package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"iothub/internal/telemetry"
)

// @Summary      Buffered telemetry
// @Description  In-memory samples for the device, oldest to newest (up to the buffer capacity).
// @Tags         telemetry
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  map[string]interface{}  "count, samples"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/devices/{id}/telemetry [get]
// @Security     BearerAuth
func (h *Handler) deviceTelemetry(c *gin.Context) {
	samples := h.services.Telemetry.Snapshot(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{
		"count":   len(samples),
		"samples": samples,
	})
}

// @Summary      Latest telemetry sample
// @Tags         telemetry
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{id}/telemetry/latest [get]
// @Security     BearerAuth
func (h *Handler) deviceTelemetryLatest(c *gin.Context) {
	sample, err := h.services.Telemetry.Latest(c.Param("id"))
	if err != nil {
		if errors.Is(err, telemetry.ErrNoSamples) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no telemetry for device"})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load telemetry", "telemetry_latest_failed", err, "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, sample)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"iothub/internal/command"
)

const (
	statusCommandSent = "command_sent"

	errBrokerDown  = "mqtt broker unavailable"
	errSendCommand = "failed to send command"
)

// Request DTO for outbound control commands.
type commandRequest struct {
	Command string `json:"command" binding:"required"` // e.g. LED | FAN_SPEED
	Value   any    `json:"value,omitempty"`
}

// SendCommandRequest is an exported model for Swagger docs of the command payload.
type SendCommandRequest struct {
	// Command name understood by the device firmware
	Command string `json:"command" example:"FAN_SPEED"`
	// Free-form value; numbers, booleans and strings are all valid
	Value any `json:"value,omitempty" example:"75"`
}

// @Summary      Send control command
// @Description  Publishes a command to the device's control topic over MQTT.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        id    path   string              true  "Device ID"
// @Param        body  body   SendCommandRequest  true  "Command payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/devices/{id}/command [post]
// @Security     BearerAuth
func (h *Handler) sendCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	id := c.Param("id")
	if err := h.services.Commands.Send(id, req.Command, req.Value); err != nil {
		if errors.Is(err, command.ErrTransportUnavailable) {
			h.logAndJSONError(c, http.StatusServiceUnavailable, errBrokerDown, "command_broker_down", err, "device_id", id)
			return
		}
		h.logAndJSONError(c, http.StatusBadGateway, errSendCommand, "command_send_failed", err, "device_id", id, "command", req.Command)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  statusCommandSent,
		"command": req.Command,
	})
}

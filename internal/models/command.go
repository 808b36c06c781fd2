package models

import "time"

// CommandPayload is the wire shape published to a device's control topic.
type CommandPayload struct {
	Command   string    `json:"command"` // e.g. LED, FAN_SPEED
	Value     any       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// CommandRecord is the persisted trace of an issued command.
type CommandRecord struct {
	ID          string    `json:"id"`
	IssuedAt    time.Time `json:"issued_at"`
	DeviceID    string    `json:"device_id"`
	CommandType string    `json:"command_type"`
	Value       string    `json:"command_value"` // stringified for the log
}

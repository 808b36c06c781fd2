package models

import "time"

// Device statuses. A device with no record is simply unknown to the registry;
// "unregistered" is never materialized.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Device is the identity and liveness record for one physical endpoint.
type Device struct {
	DeviceID     string         `json:"device_id"`
	Name         string         `json:"device_name"`
	Type         string         `json:"device_type"` // ESP32 | Arduino | RaspberryPi | ...
	Location     string         `json:"location,omitempty"`
	Capabilities map[string]any `json:"capabilities,omitempty"` // opaque, device-declared
	RegisteredAt time.Time      `json:"registered_at"`
	LastSeen     time.Time      `json:"last_seen"`
	Status       string         `json:"status"` // online | offline
}

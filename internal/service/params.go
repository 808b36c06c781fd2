package service

// RegisterParams carries a manual device registration from the dashboard.
type RegisterParams struct {
	DeviceID     string
	Name         string
	Type         string // ESP32 | Arduino | RaspberryPi | Other
	Location     string
	Capabilities map[string]any
}

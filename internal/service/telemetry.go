package service

import (
	"iothub/internal/models"
)

// TelemetryStore is the slice of the buffer the telemetry service consumes.
type TelemetryStore interface {
	Snapshot(deviceID string) []models.TelemetrySample
	Latest(deviceID string) (models.TelemetrySample, error)
}

type TelemetryService struct {
	buffer TelemetryStore
}

func NewTelemetryService(buf TelemetryStore) *TelemetryService {
	return &TelemetryService{buffer: buf}
}

// Snapshot returns the buffered samples oldest-to-newest; empty for devices
// that never reported.
func (s *TelemetryService) Snapshot(deviceID string) []models.TelemetrySample {
	return s.buffer.Snapshot(deviceID)
}

// Latest returns the newest buffered sample or telemetry.ErrNoSamples.
func (s *TelemetryService) Latest(deviceID string) (models.TelemetrySample, error) {
	return s.buffer.Latest(deviceID)
}

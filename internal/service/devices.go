package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iothub/internal/models"
	"iothub/internal/repository"
)

const (
	defaultHistoryHours = 24
	maxHistoryHours     = 24 * 30
)

var errMissingDeviceFields = errors.New("device_id, device_name and device_type are required")

// DeviceRegistry is the slice of the registry the device service consumes.
type DeviceRegistry interface {
	Upsert(deviceID, name, deviceType, location string, capabilities map[string]any) models.Device
	Get(deviceID string) (models.Device, error)
	List() []models.Device
	Remove(deviceID string)
}

type DeviceService struct {
	registry DeviceRegistry
	devices  repository.DeviceRepo
	sensors  repository.SensorRepo
}

func NewDeviceService(reg DeviceRegistry, devices repository.DeviceRepo, sensors repository.SensorRepo) *DeviceService {
	return &DeviceService{registry: reg, devices: devices, sensors: sensors}
}

// List returns all known devices ordered by name.
func (s *DeviceService) List(_ context.Context) []models.Device {
	return s.registry.List()
}

// Get returns one device or registry.ErrNotFound.
func (s *DeviceService) Get(_ context.Context, deviceID string) (models.Device, error) {
	return s.registry.Get(deviceID)
}

// Register performs a manual registration from the dashboard: same upsert
// semantics as a register message from the device itself, with the mirror
// written synchronously since a user is waiting on the result.
func (s *DeviceService) Register(ctx context.Context, p RegisterParams) (models.Device, error) {
	if p.DeviceID == "" || p.Name == "" || p.Type == "" {
		return models.Device{}, errMissingDeviceFields
	}

	dev := s.registry.Upsert(p.DeviceID, p.Name, p.Type, p.Location, p.Capabilities)
	if err := s.devices.Upsert(ctx, dev); err != nil {
		return models.Device{}, fmt.Errorf("mirror device %q: %w", dev.DeviceID, err)
	}
	return dev, nil
}

// Remove deletes the device from the registry and its durable mirror.
// Historical samples stay in the sensor log.
func (s *DeviceService) Remove(ctx context.Context, deviceID string) error {
	s.registry.Remove(deviceID)
	if err := s.devices.Delete(ctx, deviceID); err != nil {
		return fmt.Errorf("delete device mirror %q: %w", deviceID, err)
	}
	return nil
}

// History reads persisted samples for the last N hours (default 24, clamped).
func (s *DeviceService) History(ctx context.Context, deviceID string, hours int) ([]models.TelemetrySample, error) {
	if hours <= 0 {
		hours = defaultHistoryHours
	}
	if hours > maxHistoryHours {
		hours = maxHistoryHours
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	return s.sensors.History(ctx, deviceID, since)
}

// Stats reports persisted totals and the latest durable reading.
func (s *DeviceService) Stats(ctx context.Context, deviceID string) (models.DeviceStats, error) {
	return s.sensors.Stats(ctx, deviceID)
}

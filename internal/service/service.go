package service

import (
	"context"

	"iothub/internal/command"
	"iothub/internal/models"
	"iothub/internal/registry"
	"iothub/internal/repository"
	"iothub/internal/telemetry"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Devices exposes the registry plus the durable history/stats views to the
// presentation layer.
type Devices interface {
	List(ctx context.Context) []models.Device
	Get(ctx context.Context, deviceID string) (models.Device, error)
	Register(ctx context.Context, p RegisterParams) (models.Device, error)
	Remove(ctx context.Context, deviceID string) error
	History(ctx context.Context, deviceID string, hours int) ([]models.TelemetrySample, error)
	Stats(ctx context.Context, deviceID string) (models.DeviceStats, error)
}

// Telemetry exposes the in-memory real-time buffers (read-only).
type Telemetry interface {
	Snapshot(deviceID string) []models.TelemetrySample
	Latest(deviceID string) (models.TelemetrySample, error)
}

// Commands sends control commands to devices.
type Commands interface {
	Send(deviceID, commandType string, value any) error
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Devices
	Telemetry
	Commands
	Authorization
}

// NewService wires the core state, the command publisher and the persistence
// layer into the services the HTTP layer consumes.
func NewService(reg *registry.Registry, buf *telemetry.Buffer, pub *command.Publisher, repos *repository.Repository) *Service {
	return &Service{
		Devices:       NewDeviceService(reg, repos.Devices, repos.Sensors),
		Telemetry:     NewTelemetryService(buf),
		Commands:      NewCommandService(pub),
		Authorization: NewAuthService(repos.Auth),
	}
}

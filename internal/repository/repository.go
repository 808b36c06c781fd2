package repository

import (
	"context"
	"database/sql"
	"time"

	"iothub/internal/models"
)

// DeviceRepo mirrors the in-memory registry into durable storage. The core
// only ever writes through it; reads serve the presentation layer.
type DeviceRepo interface {
	Upsert(ctx context.Context, d models.Device) error
	Delete(ctx context.Context, deviceID string) error
}

// SensorRepo is the append-only sensor log. Append is the ingestion path;
// History and Stats back the dashboard's historical views.
type SensorRepo interface {
	Append(ctx context.Context, deviceID string, s models.TelemetrySample) error
	History(ctx context.Context, deviceID string, since time.Time) ([]models.TelemetrySample, error)
	Stats(ctx context.Context, deviceID string) (models.DeviceStats, error)
}

// CommandRepo is the append-only trace of outbound control commands.
type CommandRepo interface {
	Append(ctx context.Context, rec models.CommandRecord) error
}

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

type Repository struct {
	Devices  DeviceRepo
	Sensors  SensorRepo
	Commands CommandRepo
	Auth     Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Devices:  NewDeviceSQLite(db),
		Sensors:  NewSensorSQLite(db),
		Commands: NewCommandSQLite(db),
		Auth:     NewUserRepository(db),
	}
}

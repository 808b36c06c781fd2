package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"iothub/internal/models"
)

type DeviceSQLite struct {
	db *sql.DB
}

func NewDeviceSQLite(db *sql.DB) *DeviceSQLite { return &DeviceSQLite{db: db} }

var _ DeviceRepo = (*DeviceSQLite)(nil)

const (
	upsertDeviceSQL = `
		INSERT INTO devices (device_id, device_name, device_type, location, capabilities, registered_at, last_seen, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			device_name=excluded.device_name,
			device_type=excluded.device_type,
			location=excluded.location,
			capabilities=excluded.capabilities,
			last_seen=excluded.last_seen,
			status=excluded.status
	`

	deleteDeviceSQL = `DELETE FROM devices WHERE device_id = ?`
)

// Upsert inserts or refreshes the mirror row for a device. registered_at is
// written on insert only, matching the registry's set-once semantics.
func (r *DeviceSQLite) Upsert(ctx context.Context, d models.Device) error {
	capsJSON, err := marshalCapabilities(d.Capabilities)
	if err != nil {
		return fmt.Errorf("marshal capabilities for %q: %w", d.DeviceID, err)
	}

	_, err = r.db.ExecContext(ctx, upsertDeviceSQL,
		d.DeviceID,
		d.Name,
		d.Type,
		d.Location,
		capsJSON,
		d.RegisteredAt.UTC(),
		d.LastSeen.UTC(),
		d.Status,
	)
	if err != nil {
		return fmt.Errorf("upsert device %q: %w", d.DeviceID, err)
	}
	return nil
}

// Delete removes the mirror row. Deleting an absent row is not an error.
func (r *DeviceSQLite) Delete(ctx context.Context, deviceID string) error {
	if _, err := r.db.ExecContext(ctx, deleteDeviceSQL, deviceID); err != nil {
		return fmt.Errorf("delete device %q: %w", deviceID, err)
	}
	return nil
}

func marshalCapabilities(caps map[string]any) (string, error) {
	if caps == nil {
		caps = map[string]any{}
	}
	b, err := json.Marshal(caps)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"iothub/internal/models"
)

type SensorSQLite struct {
	db *sql.DB
}

func NewSensorSQLite(db *sql.DB) *SensorSQLite { return &SensorSQLite{db: db} }

var _ SensorRepo = (*SensorSQLite)(nil)

const (
	insertSampleSQL = `
		INSERT INTO sensor_data (id, ts, temperature, humidity, device_id)
		VALUES (?, ?, ?, ?, ?)
	`

	selectHistorySQL = `
		SELECT ts, temperature, humidity
		FROM sensor_data
		WHERE device_id = ? AND ts > ?
		ORDER BY ts ASC
	`

	countSamplesSQL = `SELECT COUNT(*) FROM sensor_data WHERE device_id = ?`

	selectLatestSQL = `
		SELECT temperature, humidity, ts
		FROM sensor_data
		WHERE device_id = ?
		ORDER BY ts DESC
		LIMIT 1
	`
)

// Append inserts one sample. A zero timestamp is stamped with the current
// UTC time so callers can hand over raw readings.
func (r *SensorSQLite) Append(ctx context.Context, deviceID string, s models.TelemetrySample) error {
	ts := s.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertSampleSQL,
		uuid.NewString(),
		ts,
		s.Temperature,
		s.Humidity,
		deviceID,
	)
	if err != nil {
		return fmt.Errorf("append sample for %q: %w", deviceID, err)
	}
	return nil
}

// History returns samples newer than since, oldest first.
func (r *SensorSQLite) History(ctx context.Context, deviceID string, since time.Time) ([]models.TelemetrySample, error) {
	rows, err := r.db.QueryContext(ctx, selectHistorySQL, deviceID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query history for %q: %w", deviceID, err)
	}
	defer rows.Close()

	out := make([]models.TelemetrySample, 0, 64)
	for rows.Next() {
		var s models.TelemetrySample
		if err := rows.Scan(&s.Timestamp, &s.Temperature, &s.Humidity); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		s.Timestamp = s.Timestamp.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats reports the sample count and the latest reading for one device.
// A device with no samples yields a zero-count result with nil latest fields.
func (r *SensorSQLite) Stats(ctx context.Context, deviceID string) (models.DeviceStats, error) {
	var stats models.DeviceStats

	if err := r.db.QueryRowContext(ctx, countSamplesSQL, deviceID).Scan(&stats.TotalDataPoints); err != nil {
		return models.DeviceStats{}, fmt.Errorf("count samples for %q: %w", deviceID, err)
	}

	var (
		temp float64
		hum  float64
		ts   time.Time
	)
	err := r.db.QueryRowContext(ctx, selectLatestSQL, deviceID).Scan(&temp, &hum, &ts)
	switch {
	case err == nil:
		ts = ts.UTC()
		stats.LatestTemperature = &temp
		stats.LatestHumidity = &hum
		stats.LatestTimestamp = &ts
	case err == sql.ErrNoRows:
		// no readings yet
	default:
		return models.DeviceStats{}, fmt.Errorf("latest sample for %q: %w", deviceID, err)
	}

	return stats, nil
}

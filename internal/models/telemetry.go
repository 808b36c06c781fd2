package models

import "time"

// TelemetrySample is one immutable sensor reading. The owning device is the
// map/table key, not part of the value.
type TelemetrySample struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // %
}

// DeviceStats summarizes what persistence holds for one device.
type DeviceStats struct {
	TotalDataPoints   int        `json:"total_data_points"`
	LatestTemperature *float64   `json:"latest_temperature"`
	LatestHumidity    *float64   `json:"latest_humidity"`
	LatestTimestamp   *time.Time `json:"latest_timestamp"`
}

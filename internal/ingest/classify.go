package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"iothub/internal/models"
)

const (
	topicPrefix   = "iot/dashboard"
	topicRegister = topicPrefix + "/register"

	suffixSensors = "sensors"
	suffixStatus  = "status"
)

type registerPayload struct {
	DeviceID     string         `json:"device_id"`
	DeviceName   string         `json:"device_name"`
	DeviceType   string         `json:"device_type"`
	Location     string         `json:"location"`
	Capabilities map[string]any `json:"capabilities"`
}

type sensorsPayload struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

type statusPayload struct {
	Status string `json:"status"`
}

// Classify turns a raw topic and payload into a typed Event. It holds no
// state and performs no side effects, so it is testable without a broker.
// Undecodable payloads yield ErrMalformedPayload, unrecognized topics
// ErrUnknownTopic; in both cases the zero Event is returned.
func Classify(topic string, payload []byte) (Event, error) {
	if topic == topicRegister {
		return classifyRegister(payload)
	}

	// Device-scoped topics: iot/dashboard/{device_id}/{sensors|status}
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0]+"/"+parts[1] != topicPrefix || parts[2] == "" {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}

	switch parts[3] {
	case suffixSensors:
		return classifySensors(parts[2], payload)
	case suffixStatus:
		return classifyStatus(parts[2], payload)
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
}

func classifyRegister(payload []byte) (Event, error) {
	var p registerPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Event{}, fmt.Errorf("%w: register: %v", ErrMalformedPayload, err)
	}
	// device_id, device_name and device_type are required; a registration
	// without them is invalid and dropped.
	if p.DeviceID == "" || p.DeviceName == "" || p.DeviceType == "" {
		return Event{}, fmt.Errorf("%w: register missing required fields", ErrMalformedPayload)
	}
	return Event{
		Kind:         KindRegister,
		DeviceID:     p.DeviceID,
		Name:         p.DeviceName,
		Type:         p.DeviceType,
		Location:     p.Location,
		Capabilities: p.Capabilities,
	}, nil
}

func classifySensors(deviceID string, payload []byte) (Event, error) {
	var p sensorsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Event{}, fmt.Errorf("%w: sensors: %v", ErrMalformedPayload, err)
	}
	// Absent readings stay 0: explicit policy, not an error.
	return Event{
		Kind:        KindSensors,
		DeviceID:    deviceID,
		Temperature: p.Temperature,
		Humidity:    p.Humidity,
	}, nil
}

func classifyStatus(deviceID string, payload []byte) (Event, error) {
	var p statusPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Event{}, fmt.Errorf("%w: status: %v", ErrMalformedPayload, err)
	}
	if p.Status == "" {
		p.Status = models.StatusOnline
	}
	return Event{
		Kind:     KindStatus,
		DeviceID: deviceID,
		Status:   p.Status,
	}, nil
}

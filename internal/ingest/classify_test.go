package ingest

import (
	"errors"
	"testing"
)

func TestClassify_Register(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"device_id": "esp32_001",
		"device_name": "Living Room Sensor",
		"device_type": "ESP32",
		"location": "Living Room",
		"capabilities": {"temperature": true, "fan_control": true}
	}`)

	ev, err := Classify("iot/dashboard/register", payload)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if ev.Kind != KindRegister {
		t.Fatalf("kind = %q, want register", ev.Kind)
	}
	if ev.DeviceID != "esp32_001" || ev.Name != "Living Room Sensor" || ev.Type != "ESP32" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Capabilities["fan_control"] != true {
		t.Fatalf("capabilities not carried: %+v", ev.Capabilities)
	}
}

func TestClassify_Register_MissingRequiredFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
	}{
		{"no device_id", `{"device_name":"n","device_type":"t"}`},
		{"no device_name", `{"device_id":"d","device_type":"t"}`},
		{"no device_type", `{"device_id":"d","device_name":"n"}`},
		{"empty object", `{}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Classify("iot/dashboard/register", []byte(tc.payload))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestClassify_Sensors(t *testing.T) {
	t.Parallel()

	ev, err := Classify("iot/dashboard/esp32_001/sensors", []byte(`{"temperature": 21.5, "humidity": 44.0}`))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if ev.Kind != KindSensors || ev.DeviceID != "esp32_001" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Temperature != 21.5 || ev.Humidity != 44.0 {
		t.Fatalf("readings not carried: %+v", ev)
	}
}

func TestClassify_Sensors_AbsentFieldsDefaultToZero(t *testing.T) {
	t.Parallel()

	ev, err := Classify("iot/dashboard/d1/sensors", []byte(`{"temperature": 19.0}`))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if ev.Humidity != 0 {
		t.Fatalf("absent humidity should default to 0, got %v", ev.Humidity)
	}

	ev, err = Classify("iot/dashboard/d1/sensors", []byte(`{}`))
	if err != nil {
		t.Fatalf("Classify empty object: %v", err)
	}
	if ev.Temperature != 0 || ev.Humidity != 0 {
		t.Fatalf("absent readings should default to 0: %+v", ev)
	}
}

func TestClassify_Status(t *testing.T) {
	t.Parallel()

	ev, err := Classify("iot/dashboard/d1/status", []byte(`{"status":"offline"}`))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if ev.Kind != KindStatus || ev.Status != "offline" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestClassify_Status_DefaultsToOnline(t *testing.T) {
	t.Parallel()

	ev, err := Classify("iot/dashboard/d1/status", []byte(`{"timestamp": 1767225600}`))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if ev.Status != "online" {
		t.Fatalf("absent status should default to online, got %q", ev.Status)
	}
}

func TestClassify_UnknownTopics(t *testing.T) {
	t.Parallel()

	topics := []string{
		"iot/dashboard",
		"iot/dashboard/d1/control", // outbound-only suffix
		"iot/dashboard/d1/bogus",
		"iot/dashboard//sensors", // empty device_id segment
		"iot/other/d1/sensors",
		"some/other/topic/entirely",
		"",
	}
	for _, topic := range topics {
		if _, err := Classify(topic, []byte(`{}`)); !errors.Is(err, ErrUnknownTopic) {
			t.Errorf("topic %q: expected ErrUnknownTopic, got %v", topic, err)
		}
	}
}

func TestClassify_MalformedPayloads(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		topic string
		body  string
	}{
		{"register not json", "iot/dashboard/register", `not json at all`},
		{"sensors truncated", "iot/dashboard/d1/sensors", `{"temperature":`},
		{"sensors wrong type", "iot/dashboard/d1/sensors", `{"temperature":"hot"}`},
		{"status wrong type", "iot/dashboard/d1/status", `{"status":42}`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Classify(tc.topic, []byte(tc.body))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

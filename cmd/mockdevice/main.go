// Command mockdevice simulates a physical IoT device: it registers itself,
// streams sensor readings, heartbeats periodically and reacts to control
// commands. Useful for exercising the hub without real hardware.
package main

import (
	"encoding/json"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"iothub/internal/logger"
	"iothub/internal/models"
	"iothub/internal/mqtt"
)

const (
	sensorPeriod    = 2 * time.Second
	heartbeatPeriod = 30 * time.Second

	baseTemperature = 25.0
	baseHumidity    = 50.0
)

type registration struct {
	DeviceID     string         `json:"device_id"`
	DeviceName   string         `json:"device_name"`
	DeviceType   string         `json:"device_type"`
	Location     string         `json:"location"`
	Capabilities map[string]any `json:"capabilities"`
}

type sensorReading struct {
	DeviceID    string  `json:"device_id"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Timestamp   string  `json:"timestamp"`
}

type heartbeat struct {
	DeviceID  string `json:"device_id"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// device holds the simulated actuator state; control commands mutate it and
// sensor generation reads it, from different goroutines.
type device struct {
	mu       sync.Mutex
	ledOn    bool
	fanSpeed float64
}

func (d *device) applyCommand(cmd models.CommandPayload, log *logger.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch cmd.Command {
	case "LED":
		d.ledOn = cmd.Value == "ON" || cmd.Value == true
		log.Infow("led_set", "on", d.ledOn)
	case "FAN_SPEED":
		if v, ok := cmd.Value.(float64); ok {
			d.fanSpeed = v
		}
		log.Infow("fan_speed_set", "percent", d.fanSpeed)
	default:
		log.Infow("command_ignored", "command", cmd.Command)
	}
}

// reading produces a plausible sample around room conditions; a running fan
// pulls the temperature down.
func (d *device) reading(deviceID string) sensorReading {
	d.mu.Lock()
	fan := d.fanSpeed
	d.mu.Unlock()

	temp := baseTemperature + rand.NormFloat64()*2
	if fan > 0 {
		temp -= fan * 0.05
	}
	hum := baseHumidity + rand.NormFloat64()*5
	if hum < 0 {
		hum = 0
	}
	if hum > 100 {
		hum = 100
	}

	return sensorReading{
		DeviceID:    deviceID,
		Temperature: round2(temp),
		Humidity:    round2(hum),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func main() {
	var (
		brokerURL  = flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
		deviceID   = flag.String("id", "mock_device_001", "device identifier")
		deviceName = flag.String("name", "Mock Sensor #1", "human-readable device name")
		location   = flag.String("location", "Test Lab", "device location")
	)
	flag.Parse()

	log := logger.Get(logger.InfoLevel)

	client, err := mqtt.Connect(mqtt.Config{
		BrokerURL: *brokerURL,
		ClientID:  *deviceID,
	}, log)
	if err != nil {
		log.Fatalw("failed to connect to broker", "err", err)
	}
	defer client.Close()

	dev := &device{}

	// Listen for control commands addressed to this device.
	err = client.Subscribe(mqtt.ControlTopic(*deviceID), func(_ string, payload []byte) {
		var cmd models.CommandPayload
		if err := json.Unmarshal(payload, &cmd); err != nil {
			log.Warnw("bad control payload", "err", err)
			return
		}
		dev.applyCommand(cmd, log)
	})
	if err != nil {
		log.Fatalw("failed to subscribe to control topic", "err", err)
	}

	// Introduce ourselves to the hub.
	if err := publishJSON(client, mqtt.TopicRegister, registration{
		DeviceID:   *deviceID,
		DeviceName: *deviceName,
		DeviceType: "mock",
		Location:   *location,
		Capabilities: map[string]any{
			"temperature": true,
			"humidity":    true,
			"led_control": true,
			"fan_control": true,
		},
	}); err != nil {
		log.Fatalw("failed to register device", "err", err)
	}
	log.Infow("device registered", "device_id", *deviceID, "name", *deviceName)

	sensorTopic := "iot/dashboard/" + *deviceID + "/sensors"
	statusTopic := "iot/dashboard/" + *deviceID + "/status"

	sensors := time.NewTicker(sensorPeriod)
	heartbeats := time.NewTicker(heartbeatPeriod)
	defer func() {
		sensors.Stop()
		heartbeats.Stop()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Infow("mock device running", "broker", *brokerURL, "sensor_topic", sensorTopic)
	for {
		select {
		case <-sensors.C:
			r := dev.reading(*deviceID)
			if err := publishJSON(client, sensorTopic, r); err != nil {
				log.Errorw("sensor publish failed", "err", err)
				continue
			}
			log.Infow("sensor data published", "temperature", r.Temperature, "humidity", r.Humidity)
		case <-heartbeats.C:
			hb := heartbeat{DeviceID: *deviceID, Status: models.StatusOnline, Timestamp: time.Now().Unix()}
			if err := publishJSON(client, statusTopic, hb); err != nil {
				log.Errorw("heartbeat publish failed", "err", err)
			}
		case <-quit:
			log.Infow("stopping mock device")
			return
		}
	}
}

func publishJSON(client *mqtt.Client, topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Publish(topic, data)
}

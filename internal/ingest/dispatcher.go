package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"iothub/internal/logger"
	"iothub/internal/models"
	"iothub/internal/registry"
	"iothub/internal/repository"
	"iothub/internal/telemetry"
)

// Placeholder device type for auto-provisioned devices. A Sensors event for an
// unknown device_id materializes a record so its readings aren't lost; a later
// Register event replaces the placeholder fields.
const autoProvisionType = "unknown"

const persistTimeout = 5 * time.Second

// Dispatcher wires classified events into the registry and telemetry buffer,
// and issues best-effort persistence writes. Persistence happens on separate
// goroutines, after the in-memory update and outside any lock, so ingestion
// never waits on disk.
type Dispatcher struct {
	registry *registry.Registry
	buffer   *telemetry.Buffer
	devices  repository.DeviceRepo
	sensors  repository.SensorRepo
	log      *logger.Logger

	now func() time.Time
	wg  sync.WaitGroup
}

// NewDispatcher builds a dispatcher over the given core state and persistence
// collaborators.
func NewDispatcher(reg *registry.Registry, buf *telemetry.Buffer, devices repository.DeviceRepo, sensors repository.SensorRepo, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		buffer:   buf,
		devices:  devices,
		sensors:  sensors,
		log:      log,
		now:      time.Now,
	}
}

// OnMessage adapts HandleMessage to the transport's callback shape. Errors are
// already logged inside; a broken message never takes the subscriber down.
func (d *Dispatcher) OnMessage(topic string, payload []byte) {
	_ = d.HandleMessage(topic, payload)
}

// HandleMessage classifies one raw message and applies it. The returned error
// reports unknown topics and malformed payloads to the caller; in both cases
// no state was changed.
func (d *Dispatcher) HandleMessage(topic string, payload []byte) error {
	ev, err := Classify(topic, payload)
	if err != nil {
		d.log.Warnw("message_dropped", "topic", topic, "err", err)
		return err
	}
	return d.Apply(ev)
}

// Apply runs the dispatch table for one classified event.
func (d *Dispatcher) Apply(ev Event) error {
	switch ev.Kind {
	case KindRegister:
		d.applyRegister(ev)
	case KindSensors:
		d.applySensors(ev)
	case KindStatus:
		d.applyStatus(ev)
	default:
		d.log.Warnw("event_dropped", "kind", ev.Kind, "device_id", ev.DeviceID)
	}
	return nil
}

func (d *Dispatcher) applyRegister(ev Event) {
	dev := d.registry.Upsert(ev.DeviceID, ev.Name, ev.Type, ev.Location, ev.Capabilities)
	d.log.Infow("device_registered", "device_id", dev.DeviceID, "name", dev.Name, "type", dev.Type)
	d.mirrorDevice(dev)
}

func (d *Dispatcher) applySensors(ev Event) {
	sample := models.TelemetrySample{
		Timestamp:   d.now().UTC(),
		Temperature: ev.Temperature,
		Humidity:    ev.Humidity,
	}
	d.buffer.Push(ev.DeviceID, sample)

	dev, err := d.registry.Touch(ev.DeviceID, models.StatusOnline)
	if errors.Is(err, registry.ErrNotFound) {
		// Auto-provision: readings arrived before (or without) registration.
		dev = d.registry.Upsert(ev.DeviceID, ev.DeviceID, autoProvisionType, "", nil)
		d.log.Infow("device_auto_provisioned", "device_id", ev.DeviceID)
	}

	deviceID := ev.DeviceID
	d.persist("sensor_sample", func(ctx context.Context) error {
		return d.sensors.Append(ctx, deviceID, sample)
	})
	d.mirrorDevice(dev)
}

func (d *Dispatcher) applyStatus(ev Event) {
	dev, err := d.registry.Touch(ev.DeviceID, ev.Status)
	if errors.Is(err, registry.ErrNotFound) {
		// Status alone does not provision a device; drop and note it.
		d.log.Infow("status_for_unknown_device", "device_id", ev.DeviceID, "status", ev.Status)
		return
	}
	d.mirrorDevice(dev)
}

// mirrorDevice refreshes the durable copy of a registry record.
func (d *Dispatcher) mirrorDevice(dev models.Device) {
	d.persist("device_mirror", func(ctx context.Context) error {
		return d.devices.Upsert(ctx, dev)
	})
}

// persist runs one write on its own goroutine with a bounded context.
// Failures are logged and never propagate to the ingestion path.
func (d *Dispatcher) persist(what string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			d.log.Errorw("persistence_write_failed", "what", what, "err", err)
		}
	}()
}

// Wait blocks until all issued persistence writes have finished. Used on
// shutdown to drain in-flight writes, and by tests for determinism.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

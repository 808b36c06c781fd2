package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"iothub/internal/logger"
	"iothub/internal/models"
	"iothub/internal/mqtt"
	"iothub/internal/repository"
)

// ErrTransportUnavailable signals that no live broker connection exists; the
// command was not sent and the core does not retry.
var ErrTransportUnavailable = errors.New("transport unavailable")

const persistTimeout = 5 * time.Second

// Transport is the outbound side of the broker connection.
type Transport interface {
	IsConnected() bool
	Publish(topic string, payload []byte) error
}

// Publisher builds control commands and emits them to per-device control
// topics. Success means the transport accepted the send (QoS 0), never that
// the device received it. The command trace is persisted best-effort.
type Publisher struct {
	transport Transport
	commands  repository.CommandRepo
	log       *logger.Logger

	now func() time.Time
	wg  sync.WaitGroup
}

func NewPublisher(transport Transport, commands repository.CommandRepo, log *logger.Logger) *Publisher {
	return &Publisher{
		transport: transport,
		commands:  commands,
		log:       log,
		now:       time.Now,
	}
}

// Publish sends {command, value, timestamp} to the device's control topic.
func (p *Publisher) Publish(deviceID, commandType string, value any) error {
	if !p.transport.IsConnected() {
		return ErrTransportUnavailable
	}

	issued := p.now().UTC()
	payload, err := json.Marshal(models.CommandPayload{
		Command:   commandType,
		Value:     value,
		Timestamp: issued,
	})
	if err != nil {
		return fmt.Errorf("encode command %q for %q: %w", commandType, deviceID, err)
	}

	if err := p.transport.Publish(mqtt.ControlTopic(deviceID), payload); err != nil {
		return fmt.Errorf("publish command %q to %q: %w", commandType, deviceID, err)
	}

	p.log.Infow("command_published", "device_id", deviceID, "command", commandType, "value", value)

	rec := models.CommandRecord{
		IssuedAt:    issued,
		DeviceID:    deviceID,
		CommandType: commandType,
		Value:       fmt.Sprint(value),
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := p.commands.Append(ctx, rec); err != nil {
			p.log.Errorw("persistence_write_failed", "what", "command_record", "err", err)
		}
	}()

	return nil
}

// Wait blocks until all issued command-trace writes have finished.
func (p *Publisher) Wait() {
	p.wg.Wait()
}

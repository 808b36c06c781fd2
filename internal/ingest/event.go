package ingest

import "errors"

// Classification errors. Both are non-fatal: the message is dropped after the
// caller logs it, and no state changes.
var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUnknownTopic     = errors.New("unknown topic")
)

// Kind classifies an inbound message.
type Kind string

const (
	KindRegister Kind = "register"
	KindSensors  Kind = "sensors"
	KindStatus   Kind = "status"
)

// Event is the typed form of one inbound message. Only the fields relevant to
// its Kind are populated.
type Event struct {
	Kind     Kind
	DeviceID string

	// Register
	Name         string
	Type         string
	Location     string
	Capabilities map[string]any

	// Sensors (absent payload fields default to 0 by policy)
	Temperature float64
	Humidity    float64

	// Status (absent payload field defaults to "online" by policy)
	Status string
}

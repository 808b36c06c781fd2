package telemetry

import (
	"errors"
	"sync"

	"iothub/internal/models"
)

// DefaultCapacity matches the dashboard's real-time chart depth.
const DefaultCapacity = 100

// ErrNoSamples signals that a device has never reported telemetry.
var ErrNoSamples = errors.New("no samples for device")

// Buffer keeps a fixed-capacity ring of recent samples per device. Rings are
// created lazily under the same lock as pushes, and every read copies samples
// out, so snapshots stay valid while concurrent pushes evict.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	rings    map[string]*ring
}

// ring is a circular buffer over a preallocated slice.
type ring struct {
	samples []models.TelemetrySample
	start   int // index of oldest sample
	size    int
}

// NewBuffer returns a Buffer holding up to capacity samples per device.
// Non-positive capacities fall back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		rings:    make(map[string]*ring),
	}
}

// Push appends a sample to the device's ring, evicting the oldest sample once
// the ring is full. O(1).
func (b *Buffer) Push(deviceID string, s models.TelemetrySample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rg, ok := b.rings[deviceID]
	if !ok {
		rg = &ring{samples: make([]models.TelemetrySample, b.capacity)}
		b.rings[deviceID] = rg
	}

	if rg.size < len(rg.samples) {
		rg.samples[(rg.start+rg.size)%len(rg.samples)] = s
		rg.size++
		return
	}
	// Full: overwrite the oldest slot and advance the start.
	rg.samples[rg.start] = s
	rg.start = (rg.start + 1) % len(rg.samples)
}

// Snapshot returns the device's samples oldest-to-newest. A device that has
// never reported yields an empty slice, not an error.
func (b *Buffer) Snapshot(deviceID string) []models.TelemetrySample {
	b.mu.Lock()
	defer b.mu.Unlock()

	rg, ok := b.rings[deviceID]
	if !ok {
		return []models.TelemetrySample{}
	}
	out := make([]models.TelemetrySample, rg.size)
	for i := 0; i < rg.size; i++ {
		out[i] = rg.samples[(rg.start+i)%len(rg.samples)]
	}
	return out
}

// Latest returns the most recent sample for deviceID, or ErrNoSamples.
func (b *Buffer) Latest(deviceID string) (models.TelemetrySample, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rg, ok := b.rings[deviceID]
	if !ok || rg.size == 0 {
		return models.TelemetrySample{}, ErrNoSamples
	}
	return rg.samples[(rg.start+rg.size-1)%len(rg.samples)], nil
}

// Len reports how many samples are currently buffered for deviceID.
func (b *Buffer) Len(deviceID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	rg, ok := b.rings[deviceID]
	if !ok {
		return 0
	}
	return rg.size
}

package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"iothub/internal/models"
)

// ErrNotFound signals that no record exists for the requested device_id.
// It is a non-fatal condition; callers decide whether to upsert instead.
var ErrNotFound = errors.New("device not found")

// Registry owns the authoritative set of known devices and their liveness
// state. All operations are serialized by a single mutex and every read
// returns a copy, so callers never hold a reference into internal storage.
type Registry struct {
	mu      sync.Mutex
	devices map[string]models.Device

	// now is injectable so sweep tests don't wait on the wall clock.
	now func() time.Time
}

// New returns an empty registry using the wall clock.
func New() *Registry {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty registry with an injected time source.
func NewWithClock(now func() time.Time) *Registry {
	return &Registry{
		devices: make(map[string]models.Device),
		now:     now,
	}
}

// Upsert inserts a new record or replaces the descriptive fields of an
// existing one. The device always comes out online with a fresh last_seen.
// registered_at is set once and survives re-registration.
func (r *Registry) Upsert(deviceID, name, deviceType, location string, capabilities map[string]any) models.Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	d, exists := r.devices[deviceID]
	if !exists {
		d = models.Device{
			DeviceID:     deviceID,
			RegisteredAt: now,
			LastSeen:     now,
		}
	}
	d.Name = name
	d.Type = deviceType
	d.Location = location
	d.Capabilities = cloneCapabilities(capabilities)
	d.Status = models.StatusOnline
	d.LastSeen = laterOf(d.LastSeen, now)

	r.devices[deviceID] = d
	return copyDevice(d)
}

// Touch marks an existing device as seen now with the given status.
// Unknown devices are left untouched and ErrNotFound is returned.
func (r *Registry) Touch(deviceID, status string) (models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, exists := r.devices[deviceID]
	if !exists {
		return models.Device{}, ErrNotFound
	}
	d.Status = status
	d.LastSeen = laterOf(d.LastSeen, r.now().UTC())
	r.devices[deviceID] = d
	return copyDevice(d), nil
}

// Get returns a copy of the record for deviceID, or ErrNotFound.
func (r *Registry) Get(deviceID string) (models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, exists := r.devices[deviceID]
	if !exists {
		return models.Device{}, ErrNotFound
	}
	return copyDevice(d), nil
}

// List returns copies of all records ordered by name (device_id breaks ties,
// so the order is stable across calls).
func (r *Registry) List() []models.Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, copyDevice(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	return out
}

// Remove deletes the record for deviceID. Removing an unknown device is a no-op.
func (r *Registry) Remove(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, deviceID)
}

// Count reports how many devices are currently registered.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

// SweepStale demotes every online device not seen within timeout to offline
// and returns how many records changed. Devices already offline are untouched.
func (r *Registry) SweepStale(timeout time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().UTC().Add(-timeout)
	changed := 0
	for id, d := range r.devices {
		if d.Status != models.StatusOnline {
			continue
		}
		// now - last_seen >= timeout  <=>  last_seen <= cutoff
		if !d.LastSeen.After(cutoff) {
			d.Status = models.StatusOffline
			r.devices[id] = d
			changed++
		}
	}
	return changed
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func copyDevice(d models.Device) models.Device {
	d.Capabilities = cloneCapabilities(d.Capabilities)
	return d
}

// cloneCapabilities copies the capability map one level deep; values are
// opaque to the registry and treated as immutable by convention.
func cloneCapabilities(caps map[string]any) map[string]any {
	if caps == nil {
		return nil
	}
	out := make(map[string]any, len(caps))
	for k, v := range caps {
		out[k] = v
	}
	return out
}

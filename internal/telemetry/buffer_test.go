package telemetry

import (
	"sync"
	"testing"
	"time"

	"iothub/internal/models"
)

func sampleAt(sec int) models.TelemetrySample {
	return models.TelemetrySample{
		Timestamp:   time.Date(2026, time.March, 1, 12, 0, sec, 0, time.UTC),
		Temperature: 20 + float64(sec),
		Humidity:    40 + float64(sec),
	}
}

func TestPush_EvictsOldestBeyondCapacity(t *testing.T) {
	t.Parallel()

	b := NewBuffer(100)
	for i := 0; i < 101; i++ {
		b.Push("d1", sampleAt(i))
	}

	snap := b.Snapshot("d1")
	if len(snap) != 100 {
		t.Fatalf("snapshot length = %d, want 100", len(snap))
	}
	// The 1st pushed sample is gone, the 101st is present.
	if snap[0].Temperature != sampleAt(1).Temperature {
		t.Errorf("oldest sample not evicted: %+v", snap[0])
	}
	if snap[99].Temperature != sampleAt(100).Temperature {
		t.Errorf("newest sample missing: %+v", snap[99])
	}
}

func TestSnapshot_ArrivalOrder(t *testing.T) {
	t.Parallel()

	b := NewBuffer(4)
	for i := 0; i < 7; i++ { // wraps the ring almost twice
		b.Push("d1", sampleAt(i))
	}

	snap := b.Snapshot("d1")
	if len(snap) != 4 {
		t.Fatalf("snapshot length = %d, want 4", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if !snap[i].Timestamp.After(snap[i-1].Timestamp) {
			t.Fatalf("snapshot out of order at %d: %v !> %v", i, snap[i].Timestamp, snap[i-1].Timestamp)
		}
	}
}

func TestSnapshot_UnknownDeviceIsEmpty(t *testing.T) {
	t.Parallel()

	b := NewBuffer(10)
	snap := b.Snapshot("never-seen")
	if snap == nil || len(snap) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap)
	}
}

func TestLatest(t *testing.T) {
	t.Parallel()

	b := NewBuffer(3)
	if _, err := b.Latest("d1"); err != ErrNoSamples {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}

	b.Push("d1", sampleAt(0))
	b.Push("d1", sampleAt(1))
	got, err := b.Latest("d1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.Temperature != sampleAt(1).Temperature {
		t.Fatalf("Latest returned %+v, want newest sample", got)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	t.Parallel()

	b := NewBuffer(3)
	b.Push("d1", sampleAt(0))

	snap := b.Snapshot("d1")
	snap[0].Temperature = -999

	again := b.Snapshot("d1")
	if again[0].Temperature == -999 {
		t.Fatalf("snapshot mutation leaked into buffer")
	}
}

func TestBuffersAreIndependentPerDevice(t *testing.T) {
	t.Parallel()

	b := NewBuffer(2)
	b.Push("a", sampleAt(0))
	b.Push("b", sampleAt(1))
	b.Push("b", sampleAt(2))

	if got := b.Len("a"); got != 1 {
		t.Errorf("device a length = %d, want 1", got)
	}
	if got := b.Len("b"); got != 2 {
		t.Errorf("device b length = %d, want 2", got)
	}
}

func TestZeroCapacityFallsBackToDefault(t *testing.T) {
	t.Parallel()

	b := NewBuffer(0)
	for i := 0; i < DefaultCapacity+5; i++ {
		b.Push("d1", sampleAt(i%60))
	}
	if got := b.Len("d1"); got != DefaultCapacity {
		t.Fatalf("length = %d, want %d", got, DefaultCapacity)
	}
}

func TestConcurrentPushAndSnapshot(t *testing.T) {
	t.Parallel()

	b := NewBuffer(50)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				b.Push("d1", sampleAt(j%60))
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if got := len(b.Snapshot("d1")); got > 50 {
					t.Errorf("snapshot exceeded capacity: %d", got)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := b.Len("d1"); got > 50 {
		t.Fatalf("buffer exceeded capacity: %d", got)
	}
}

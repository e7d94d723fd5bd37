package metrics

import (
	"sync"
	"testing"
)

type collectingSink struct {
	mu    sync.Mutex
	batch []Event
}

func (s *collectingSink) Emit(b []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = append(s.batch, b...)
	return nil
}

func TestEmitterFlushesOnClose(t *testing.T) {
	sink := &collectingSink{}
	e := NewEmitter(sink, 16, 4, nil)
	e.Emit(Event{ProjectID: "p1", Method: "eth_chainId"})
	e.Emit(Event{ProjectID: "p2", Method: "eth_blockNumber"})
	e.Close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.batch) != 2 {
		t.Fatalf("expected 2 events flushed, got %d", len(sink.batch))
	}
}

// blockingSink holds the consumer goroutine hostage until the test
// releases it, so the channel can be reliably saturated.
type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit([]Event) error {
	<-s.release
	return nil
}

func TestEmitterDropsOnFullChannel(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	e := NewEmitter(sink, 1, 1, nil)

	// The first event is picked up by run() and blocks inside Emit
	// (batchSize=1 flushes immediately), holding the consumer hostage
	// while the channel itself (capacity 1) fills with a second event.
	e.Emit(Event{ProjectID: "first"})
	e.Emit(Event{ProjectID: "second"})
	for i := 0; i < 50; i++ {
		e.Emit(Event{ProjectID: "flood"})
	}
	close(sink.release)
	e.Close()

	if e.Dropped() == 0 {
		t.Fatal("expected at least one dropped event under saturation")
	}
}

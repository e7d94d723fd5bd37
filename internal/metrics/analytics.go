package metrics

import (
	"encoding/json"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Event is the structured record emitted for every proxied request whose
// body parsed as JSON-RPC (spec §4.6 "Analytics emission").
type Event struct {
	ProjectID    string `json:"project_id"`
	ChainID      string `json:"chain_id"`
	Method       string `json:"method"`
	SourceTag    string `json:"source_tag,omitempty"`
	ProviderKind string `json:"provider_kind"`
	Origin       string `json:"origin,omitempty"`
	Country      string `json:"country,omitempty"`
	Continent    string `json:"continent,omitempty"`
	SDKInfo      string `json:"sdk_info,omitempty"`
	RequestID    string `json:"request_id"`
}

// Sink ships batched events somewhere durable (the real implementation —
// an S3/Parquet columnar sink — is an external collaborator out of core
// scope per spec §1; this interface is all the core needs to depend on).
type Sink interface {
	Emit(batch []Event) error
}

// Emitter is a bounded, non-blocking fan-out from the request path to a
// Sink. A full channel drops the event and increments a loss counter; it
// never blocks the response (spec §4.6).
type Emitter struct {
	events    chan Event
	sink      Sink
	batchSize int
	dropped   atomic.Uint64
	log       *logrus.Entry
	done      chan struct{}
}

// NewEmitter starts the background batching goroutine. Call Close to stop
// it and flush any partial batch.
func NewEmitter(sink Sink, bufferSize, batchSize int, log *logrus.Entry) *Emitter {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	e := &Emitter{
		events:    make(chan Event, bufferSize),
		sink:      sink,
		batchSize: batchSize,
		log:       log,
		done:      make(chan struct{}),
	}
	go e.run()
	return e
}

// Emit enqueues ev for shipping. It never blocks: if the channel is full
// the event is dropped and a loss counter is incremented.
func (e *Emitter) Emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.dropped.Add(1)
	}
}

// Dropped returns the number of events lost to a full channel so far.
func (e *Emitter) Dropped() uint64 { return e.dropped.Load() }

func (e *Emitter) run() {
	batch := make([]Event, 0, e.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := e.sink.Emit(batch); err != nil {
			e.log.WithError(err).Warn("analytics sink rejected a batch")
		}
		batch = batch[:0]
	}
	for ev := range e.events {
		batch = append(batch, ev)
		if len(batch) >= e.batchSize {
			flush()
		}
	}
	flush()
	close(e.done)
}

// Close stops accepting new events and waits for the final flush.
func (e *Emitter) Close() {
	close(e.events)
	<-e.done
}

// NoopSink discards every batch; useful as a default when no downstream
// analytics sink is configured.
type NoopSink struct{}

func (NoopSink) Emit([]Event) error { return nil }

// JSONLSink marshals each event as newline-delimited JSON via a
// user-supplied writer function, matching the "columnar files" shape
// spec §4.8 describes without depending on the real S3/Parquet writer.
type JSONLSink struct {
	Write func(line []byte) error
}

func (s JSONLSink) Emit(batch []Event) error {
	for _, ev := range batch {
		line, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		line = append(line, '\n')
		if err := s.Write(line); err != nil {
			return err
		}
	}
	return nil
}

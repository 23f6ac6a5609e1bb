// Package coretrace implements a corerun.EventObserver that batches the
// scheduler's event stream for export, using
// github.com/joeycumines/go-microbatch. It is an external collaborator
// in the sense spec.md scopes out ("trace/snapshot/telemetry ring
// buffers... specified only via the interfaces they expose to or
// consume from the core"): corerun.Runtime stays single-threaded and
// allocation-free on its hot path, and only ever calls
// EventObserver.Observe synchronously; all batching, concurrency, and
// I/O happen inside this package, off that call.
package coretrace

import (
	"context"
	"time"

	"github.com/joeycumines/go-corerun/corerun"
	microbatch "github.com/joeycumines/go-microbatch"
)

// Exporter receives batches of events, in emission order within each
// batch. It is called from the batcher's own goroutine(s), never from
// the corerun.Runtime's calling goroutine.
type Exporter func(ctx context.Context, events []corerun.Event) error

// Recorder batches corerun.Event values and forwards them to an
// Exporter, implementing corerun.EventObserver.
type Recorder struct {
	batcher *microbatch.Batcher[corerun.Event]
}

// Config configures a Recorder's batching policy; a zero Config selects
// microbatch's own defaults (16 events or 50ms, whichever comes first).
type Config struct {
	MaxSize        int
	FlushInterval  time.Duration
	MaxConcurrency int
}

// NewRecorder constructs a Recorder that forwards batched events to
// export.
func NewRecorder(cfg Config, export Exporter) *Recorder {
	r := &Recorder{}
	r.batcher = microbatch.NewBatcher[corerun.Event](
		&microbatch.BatcherConfig{
			MaxSize:        cfg.MaxSize,
			FlushInterval:  cfg.FlushInterval,
			MaxConcurrency: cfg.MaxConcurrency,
		},
		func(ctx context.Context, events []corerun.Event) error {
			return export(ctx, events)
		},
	)
	return r
}

// Observe implements corerun.EventObserver. It submits ev for batching
// without waiting for export to complete; submission errors (e.g. the
// recorder having been closed) are silently dropped, since a scheduler
// loop has no sensible way to react to a tracing failure.
func (r *Recorder) Observe(ev corerun.Event) {
	_, _ = r.batcher.Submit(context.Background(), ev)
}

// Close stops the underlying batcher, flushing any pending batch.
func (r *Recorder) Close() error {
	return r.batcher.Close()
}

// Shutdown stops the underlying batcher like Close, but waits (bounded
// by ctx) for in-flight export calls to finish first.
func (r *Recorder) Shutdown(ctx context.Context) error {
	return r.batcher.Shutdown(ctx)
}

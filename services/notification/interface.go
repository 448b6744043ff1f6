package notification

import (
	"context"
	"sync"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Emitter announces created, updated and deleted records to dashboard
// clients. Delivery is at-most-once and never blocks the caller.
type Emitter interface {
	Emit(ctx context.Context, name string, payload interface{})
}

// Sink is one delivery channel behind the emitter.
type Sink interface {
	Name() string
	Publish(ctx context.Context, event models.Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Emit(context.Context, string, interface{}) {}

const sinkTimeout = 5 * time.Second

// MultiEmitter fans each event out to every sink on a background goroutine.
type MultiEmitter struct {
	sinks    []Sink
	inflight sync.WaitGroup
}

// NewMultiEmitter ignores nil sinks so optional integrations can be passed as is.
func NewMultiEmitter(sinks ...Sink) *MultiEmitter {
	m := &MultiEmitter{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Emit returns immediately. Sink failures and panics are logged, never returned.
func (m *MultiEmitter) Emit(ctx context.Context, name string, payload interface{}) {
	if len(m.sinks) == 0 {
		return
	}
	event := models.Event{Name: name, Payload: payload}
	base := context.WithoutCancel(ctx)

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		ctx, cancel := context.WithTimeout(base, sinkTimeout)
		defer cancel()

		var wg conc.WaitGroup
		for _, sink := range m.sinks {
			sink := sink
			wg.Go(func() {
				if err := sink.Publish(ctx, event); err != nil {
					utils.GetLogger().Warn("Failed to publish event",
						zap.String("sink", sink.Name()),
						zap.String("event", name),
						zap.Error(err),
					)
				}
			})
		}
		if recovered := wg.WaitAndRecover(); recovered != nil {
			utils.GetLogger().Error("Event sink panicked",
				zap.String("event", name),
				zap.String("panic", recovered.String()),
			)
		}
	}()
}

// Wait blocks until every pending fan-out has finished.
func (m *MultiEmitter) Wait() {
	m.inflight.Wait()
}

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"

	"slydes/viewer/internal/domain"
)

const deliveryTimeout = 10 * time.Second

// Sink delivers one analytics batch. Implementations may fail; the emitter
// never surfaces those failures.
type Sink interface {
	Send(ctx context.Context, batch domain.AnalyticsBatch) error
}

type discardSink struct{}

func (discardSink) Send(context.Context, domain.AnalyticsBatch) error { return nil }

// Config identifies where the events come from
type Config struct {
	OrganizationSlug string
	SlydePublicID    string
	Source           string
	Referrer         string
}

type Option func(*Emitter)

func WithClock(c clock.Clock) Option {
	return func(e *Emitter) {
		e.clock = c
	}
}

// WithContext sets the context whose values are carried into deliveries.
// Its cancellation is ignored so that events survive the viewer going away.
func WithContext(ctx context.Context) Option {
	return func(e *Emitter) {
		e.ctx = ctx
	}
}

// WithDispatcher replaces the function used to run deliveries off the caller's
// path. The default starts a goroutine per event.
func WithDispatcher(dispatch func(func())) Option {
	return func(e *Emitter) {
		e.dispatch = dispatch
	}
}

// Emitter reports viewer events, fire-and-forget. It belongs to a single
// viewer and is not safe for concurrent use.
type Emitter struct {
	sink     Sink
	cfg      Config
	clock    clock.Clock
	dispatch func(func())
	ctx      context.Context

	session   *Session
	startedAt time.Time
}

func NewEmitter(sink Sink, cfg Config, opts ...Option) *Emitter {
	if sink == nil {
		sink = discardSink{}
	}
	e := &Emitter{
		sink:     sink,
		cfg:      cfg,
		clock:    clock.New(),
		dispatch: func(fn func()) { go fn() },
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session returns the analytics session, creating it on first use.
func (e *Emitter) Session() *Session {
	if e.session == nil {
		e.session = newSession(e.clock.Now())
	}
	return e.session
}

// Start emits sessionStart. Only the first call per session has an effect.
func (e *Emitter) Start() bool {
	if !e.EmitOnce(domain.EventSessionStart, nil) {
		return false
	}
	e.startedAt = e.clock.Now()
	return true
}

// SinceStart is the time elapsed since sessionStart, or zero before Start.
func (e *Emitter) SinceStart() time.Duration {
	if e.startedAt.IsZero() {
		return 0
	}
	return e.clock.Since(e.startedAt)
}

// Emit reports an event every time it is called.
func (e *Emitter) Emit(kind domain.EventKind, meta map[string]any) {
	e.deliver(e.build(kind, meta))
}

// EmitOnce reports an event only the first time kind is seen in this session.
func (e *Emitter) EmitOnce(kind domain.EventKind, meta map[string]any) bool {
	if !e.Session().markOnce(kind) {
		return false
	}
	e.deliver(e.build(kind, meta))
	return true
}

func (e *Emitter) build(kind domain.EventKind, meta map[string]any) domain.AnalyticsBatch {
	if meta == nil {
		meta = map[string]any{}
	}
	return domain.AnalyticsBatch{
		OrganizationSlug: e.cfg.OrganizationSlug,
		KeepAlive:        true,
		Events: []domain.AnalyticsEvent{{
			EventType:     kind,
			SessionID:     e.Session().ID,
			SlydePublicID: e.cfg.SlydePublicID,
			Source:        e.cfg.Source,
			Referrer:      e.cfg.Referrer,
			Meta:          meta,
			OccurredAt:    e.clock.Now(),
		}},
	}
}

func (e *Emitter) deliver(batch domain.AnalyticsBatch) {
	sink, base := e.sink, e.ctx
	e.dispatch(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Debugf("analytics sink panicked: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(base), deliveryTimeout)
		defer cancel()

		if err := sink.Send(ctx, batch); err != nil {
			log.Debugf("analytics event %s dropped: %v", eventType(batch), err)
		}
	})
}

func eventType(batch domain.AnalyticsBatch) string {
	if len(batch.Events) == 0 {
		return "<empty>"
	}
	return fmt.Sprintf("%s/%s", batch.Events[0].EventType, batch.Events[0].SessionID)
}

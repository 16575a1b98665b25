package app

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/internal/apperror"
	"github.com/fd1az/contentnft-gateway/internal/logger"
)

const meterName = "github.com/fd1az/contentnft-gateway/business/ledger/app"

// dispatchBuffer is the queue between the forwarders and the emitter.
const dispatchBuffer = 64

type registrarMetrics struct {
	eventsEmitted metric.Int64Counter
	streamErrors  metric.Int64Counter
}

// Registrar binds the subscription set to a transport and forwards
// events into the emitter. Listeners are called from a per-attachment
// dispatch goroutine that Detach does not wait for, so a listener may
// call back into the controller.
type Registrar struct {
	spec    domain.SubscriptionSpec
	emitter *Emitter
	logger  logger.LoggerInterface
	metrics *registrarMetrics

	mu     sync.Mutex
	subs   []EventSubscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistrar creates a Registrar for spec.
func NewRegistrar(spec domain.SubscriptionSpec, emitter *Emitter, log logger.LoggerInterface) (*Registrar, error) {
	r := &Registrar{
		spec:    spec,
		emitter: emitter,
		logger:  log,
	}

	if err := r.initMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registrar) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &registrarMetrics{}

	r.metrics.eventsEmitted, err = meter.Int64Counter(
		"ledger_events_emitted_total",
		metric.WithDescription("Contract events forwarded to listeners"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return err
	}

	r.metrics.streamErrors, err = meter.Int64Counter(
		"ledger_subscription_errors_total",
		metric.WithDescription("Subscription stream errors"),
		metric.WithUnit("{error}"),
	)
	return err
}

// Attach subscribes every entry of the set on t, dropping whatever was
// attached before. Entries that fail to subscribe are reported in the
// returned error; the others stay attached.
func (r *Registrar) Attach(ctx context.Context, t Transport) error {
	r.Detach()

	r.mu.Lock()
	defer r.mu.Unlock()

	// ctx bounds the subscribe requests only. Forwarders live until Detach.
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel

	queue := make(chan domain.Event, dispatchBuffer)
	go r.dispatch(sessionCtx, queue)

	var errs []error
	for _, entry := range r.spec {
		sub, err := t.Subscribe(ctx, entry)
		if err != nil {
			r.logger.Error(ctx, "subscribe failed",
				"event", entry.RemoteEvent, "endpoint", t.Endpoint(), "error", err)
			errs = append(errs, apperror.Wrap(err, apperror.CodeSubscribeFailed, entry.RemoteEvent))
			continue
		}

		r.subs = append(r.subs, sub)
		r.wg.Add(1)
		go r.forward(sessionCtx, entry, sub, queue)

		r.logger.Debug(ctx, "subscription attached",
			"event", entry.RemoteEvent, "emits", entry.OutputEvent)
	}

	return errors.Join(errs...)
}

func (r *Registrar) forward(ctx context.Context, entry domain.SubscriptionEntry, sub EventSubscription, queue chan<- domain.Event) {
	defer r.wg.Done()

	attrs := metric.WithAttributes(attribute.String("event", entry.OutputEvent))

	for {
		select {
		case <-ctx.Done():
			return

		case raw, ok := <-sub.Events():
			if !ok {
				return
			}
			select {
			case queue <- raw.As(entry.OutputEvent):
			case <-ctx.Done():
				return
			}

		case err, ok := <-sub.Err():
			if !ok {
				return
			}
			if err != nil {
				r.metrics.streamErrors.Add(ctx, 1, attrs)
				r.logger.Error(ctx, "subscription stream error",
					"event", entry.RemoteEvent,
					"error", apperror.Wrap(err, apperror.CodeSubscriptionStreamError, entry.RemoteEvent))
			}
			return
		}
	}
}

// dispatch hands queued events to the emitter in arrival order until the
// attachment is detached.
func (r *Registrar) dispatch(ctx context.Context, queue <-chan domain.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-queue:
			if ctx.Err() != nil {
				return
			}
			r.emitter.Emit(ctx, ev)
			r.metrics.eventsEmitted.Add(ctx, 1,
				metric.WithAttributes(attribute.String("event", ev.Name)))
		}
	}
}

// Detach unsubscribes every handle and waits for the forwarders to stop.
// A listener call already in progress may still be running when Detach
// returns; no further events are dispatched.
func (r *Registrar) Detach() {
	r.mu.Lock()
	subs, cancel := r.subs, r.cancel
	r.subs, r.cancel = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, sub := range subs {
		sub.Unsubscribe()
	}
	r.wg.Wait()
}

// Active returns the number of attached subscriptions.
func (r *Registrar) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/internal/apm"
	"github.com/fd1az/contentnft-gateway/internal/apperror"
	"github.com/fd1az/contentnft-gateway/internal/logger"
)

const tracerName = "github.com/fd1az/contentnft-gateway/business/ledger/app"

// ControllerConfig holds the failover controller tuning.
type ControllerConfig struct {
	Endpoints      domain.EndpointPair
	HealthInterval time.Duration
	ProbeTimeout   time.Duration
	DialTimeout    time.Duration
}

// DefaultControllerConfig returns the five second heartbeat used by the
// gateway.
func DefaultControllerConfig(pair domain.EndpointPair) ControllerConfig {
	return ControllerConfig{
		Endpoints:      pair,
		HealthInterval: 5 * time.Second,
		ProbeTimeout:   3 * time.Second,
		DialTimeout:    10 * time.Second,
	}
}

type controllerMetrics struct {
	failovers       metric.Int64Counter
	probeFailures   metric.Int64Counter
	dialFailures    metric.Int64Counter
	connectionState metric.Int64Gauge
}

// Controller owns the single active transport. It dials the selected
// endpoint, runs the health monitor, flips between primary and
// secondary when the node stops answering, and re-attaches the event
// subscriptions after every reconnect. It retries forever at the
// monitor cadence.
type Controller struct {
	cfg       ControllerConfig
	factory   TransportFactory
	registrar *Registrar
	emitter   *Emitter
	logger    logger.LoggerInterface

	// mu serializes Connect, Disconnect, Close and monitor ticks.
	mu       sync.Mutex
	selector *domain.Selector
	armed    bool

	// stateMu guards the fields read by Active and Status.
	stateMu   sync.RWMutex
	transport Transport
	state     domain.ConnectionState
	lastProbe time.Time
	lastError string

	failovers           atomic.Uint64
	consecutiveFailures atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool

	tracer  apm.Tracer
	metrics *controllerMetrics
}

// NewController creates a disconnected Controller.
func NewController(
	cfg ControllerConfig,
	factory TransportFactory,
	registrar *Registrar,
	emitter *Emitter,
	log logger.LoggerInterface,
) (*Controller, error) {
	if cfg.HealthInterval <= 0 {
		return nil, apperror.Validation(apperror.CodeConfigurationError, "health interval must be positive")
	}
	if cfg.ProbeTimeout <= 0 || cfg.ProbeTimeout > cfg.HealthInterval {
		cfg.ProbeTimeout = cfg.HealthInterval
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = cfg.HealthInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		cfg:       cfg,
		factory:   factory,
		registrar: registrar,
		emitter:   emitter,
		logger:    log,
		selector:  domain.NewSelector(cfg.Endpoints),
		state:     domain.StateDisconnected,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		tracer:    apm.NewTracer(tracerName),
	}

	if err := c.initMetrics(); err != nil {
		cancel()
		return nil, err
	}

	return c, nil
}

func (c *Controller) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &controllerMetrics{}

	c.metrics.failovers, err = meter.Int64Counter(
		"ledger_failovers_total",
		metric.WithDescription("Endpoint flips performed by the health monitor"),
		metric.WithUnit("{failover}"),
	)
	if err != nil {
		return err
	}

	c.metrics.probeFailures, err = meter.Int64Counter(
		"ledger_probe_failures_total",
		metric.WithDescription("Liveness probes that failed or timed out"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return err
	}

	c.metrics.dialFailures, err = meter.Int64Counter(
		"ledger_dial_failures_total",
		metric.WithDescription("Transport dials that failed"),
		metric.WithUnit("{dial}"),
	)
	if err != nil {
		return err
	}

	c.metrics.connectionState, err = meter.Int64Gauge(
		"ledger_connection_state",
		metric.WithDescription("Ledger connection state (0=disconnected, 1=connected)"),
		metric.WithUnit("{state}"),
	)
	return err
}

// Emitter returns the emitter events are delivered to.
func (c *Controller) Emitter() *Emitter {
	return c.emitter
}

// Connect dials the selected endpoint and attaches the subscriptions.
// The first call arms the health monitor, even when the dial fails, so
// the next tick keeps trying. Calling Connect while connected does
// nothing.
func (c *Controller) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("controller closed"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("controller closed"))
	}

	c.armMonitor()

	if _, ok := c.Active(); ok {
		return nil
	}

	return c.dialAndAttach(ctx, c.activeEndpoint())
}

// Disconnect tears the active transport down. The health monitor keeps
// running, so the next tick reconnects.
func (c *Controller) Disconnect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardown(ctx, "disconnect requested")
}

// Close stops the health monitor and disconnects.
func (c *Controller) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.cancel()

	c.mu.Lock()
	armed := c.armed
	c.mu.Unlock()

	if armed {
		<-c.done
	}

	c.mu.Lock()
	c.teardown(context.Background(), "controller closed")
	c.mu.Unlock()

	return nil
}

// Active returns the current transport, if connected.
func (c *Controller) Active() (Transport, bool) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.transport, c.transport != nil
}

// State returns the connection state.
func (c *Controller) State() domain.ConnectionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Status returns a snapshot of the controller health.
func (c *Controller) Status() domain.HealthStatus {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	return domain.HealthStatus{
		State:               c.state,
		ActiveEndpoint:      c.selector.Active(),
		ActiveRole:          c.selector.Role(),
		Failovers:           c.failovers.Load(),
		ConsecutiveFailures: c.consecutiveFailures.Load(),
		LastProbe:           c.lastProbe,
		LastError:           c.lastError,
	}
}

// armMonitor starts the monitor goroutine once per controller. Caller
// holds mu.
func (c *Controller) armMonitor() {
	if c.armed {
		return
	}
	c.armed = true
	go c.runMonitor()
}

func (c *Controller) runMonitor() {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.HealthInterval)
	defer ticker.Stop()

	c.logger.Info(c.ctx, "health monitor started", "interval", c.cfg.HealthInterval)

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info(context.Background(), "health monitor stopped")
			return
		case <-ticker.C:
			// Runs inline so ticks never overlap; a slow failover delays
			// the next tick instead of racing it.
			c.tick(c.ctx)
		}
	}
}

// tick performs one health check and fails over when needed.
func (c *Controller) tick(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return
	}

	t, ok := c.Active()
	if !ok {
		c.failover(ctx, "no active transport")
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	err := t.ProbeLiveness(probeCtx)
	cancel()

	c.stateMu.Lock()
	c.lastProbe = time.Now()
	c.stateMu.Unlock()

	if err == nil {
		c.consecutiveFailures.Store(0)
		return
	}

	c.metrics.probeFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("endpoint", string(t.Endpoint()))))
	c.recordError(apperror.Wrap(err, apperror.CodeLivenessProbeFailed, string(t.Endpoint())))
	c.logger.Warn(ctx, "liveness probe failed", "endpoint", t.Endpoint(), "error", err)

	c.failover(ctx, "liveness probe failed")
}

// failover tears down whatever is active, flips the endpoint and dials
// it. Caller holds mu.
func (c *Controller) failover(ctx context.Context, reason string) {
	ctx, span := c.tracer.StartSpanFromContext(ctx, "ledger.failover",
		trace.WithAttributes(attribute.String("reason", reason)))
	defer span.End()

	c.teardown(ctx, reason)

	c.stateMu.Lock()
	from := c.selector.Active()
	next := c.selector.Flip()
	c.stateMu.Unlock()

	c.failovers.Add(1)
	c.metrics.failovers.Add(ctx, 1)
	span.SetAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(next)),
	)

	c.logger.Info(ctx, "failing over", "reason", reason, "from", from, "to", next)

	if err := c.dialAndAttach(ctx, next); err != nil {
		span.NoticeError(err)
		c.consecutiveFailures.Add(1)
	}
}

// dialAndAttach opens a transport to endpoint, attaches subscriptions
// and marks the controller connected. Caller holds mu.
func (c *Controller) dialAndAttach(ctx context.Context, endpoint domain.Endpoint) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	t, err := c.factory.Dial(dialCtx, endpoint)
	cancel()

	if err != nil {
		appErr := apperror.Wrap(err, apperror.CodeTransportDialFailed, string(endpoint))
		c.metrics.dialFailures.Add(ctx, 1,
			metric.WithAttributes(attribute.String("endpoint", string(endpoint))))
		c.recordError(appErr)
		c.logger.Error(ctx, "dial failed", "endpoint", endpoint, "error", err)
		return appErr
	}

	attachCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	err = c.registrar.Attach(attachCtx, t)
	cancel()
	if err != nil {
		// Missing subscriptions do not make the node unusable.
		c.recordError(err)
		c.logger.Warn(ctx, "some subscriptions failed to attach", "endpoint", endpoint, "error", err)
	}

	c.setConnected(t)
	c.consecutiveFailures.Store(0)

	c.logger.Info(ctx, "connected to ledger", "endpoint", endpoint, "role", c.Status().ActiveRole)
	return nil
}

// teardown detaches subscriptions and closes the active transport.
// Caller holds mu.
func (c *Controller) teardown(ctx context.Context, reason string) {
	c.stateMu.Lock()
	t := c.transport
	c.transport = nil
	c.state = domain.StateDisconnected
	c.stateMu.Unlock()

	if t == nil {
		return
	}

	c.registrar.Detach()
	if err := t.Close(); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn(ctx, "closing transport", "endpoint", t.Endpoint(), "error", err)
	}

	c.metrics.connectionState.Record(ctx, domain.StateDisconnected.Gauge())
	c.logger.Info(ctx, "disconnected from ledger", "endpoint", t.Endpoint(), "reason", reason)
}

func (c *Controller) setConnected(t Transport) {
	c.stateMu.Lock()
	c.transport = t
	c.state = domain.StateConnected
	c.lastError = ""
	c.stateMu.Unlock()

	c.metrics.connectionState.Record(context.Background(), domain.StateConnected.Gauge())
}

func (c *Controller) recordError(err error) {
	c.stateMu.Lock()
	c.lastError = err.Error()
	c.stateMu.Unlock()
}

// activeEndpoint reads the selector under stateMu.
func (c *Controller) activeEndpoint() domain.Endpoint {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.selector.Active()
}

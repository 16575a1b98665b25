package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/internal/apperror"
	"github.com/fd1az/contentnft-gateway/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

var errNodeDown = errors.New("node down")

type fakeSubscription struct {
	entry  domain.SubscriptionEntry
	events chan domain.RawEvent
	errc   chan error

	once         sync.Once
	unsubscribed bool
	mu           sync.Mutex
}

func newFakeSubscription(entry domain.SubscriptionEntry) *fakeSubscription {
	return &fakeSubscription{
		entry:  entry,
		events: make(chan domain.RawEvent, 8),
		errc:   make(chan error, 1),
	}
}

func (s *fakeSubscription) Events() <-chan domain.RawEvent { return s.events }
func (s *fakeSubscription) Err() <-chan error              { return s.errc }

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.mu.Lock()
		s.unsubscribed = true
		s.mu.Unlock()
		close(s.errc)
	})
}

func (s *fakeSubscription) isUnsubscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribed
}

// fakeTransport is an in-memory Transport. The zero value answers every
// call successfully.
type fakeTransport struct {
	endpoint domain.Endpoint

	mu       sync.Mutex
	closed   bool
	probeErr error
	subs     []*fakeSubscription
	calls    map[string]int

	nonces   map[common.Address]uint64
	sendErr  error
	receipts map[common.Hash]*domain.TransactionReceipt
	head     uint64
	headStep uint64
	// noReceipts keeps transactions pending forever.
	noReceipts bool
	reverted   bool

	callResult []byte
	callErr    error
}

func newFakeTransport(endpoint domain.Endpoint) *fakeTransport {
	return &fakeTransport{
		endpoint: endpoint,
		calls:    make(map[string]int),
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*domain.TransactionReceipt),
		head:     100,
	}
}

func (t *fakeTransport) record(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[name]++
	if t.closed {
		return apperror.New(apperror.CodeTransportUnavailable, apperror.WithContext(name))
	}
	return nil
}

func (t *fakeTransport) callCount(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[name]
}

func (t *fakeTransport) totalCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		n += c
	}
	return n
}

func (t *fakeTransport) setProbeErr(err error) {
	t.mu.Lock()
	t.probeErr = err
	t.mu.Unlock()
}

func (t *fakeTransport) subscriptions() []*fakeSubscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*fakeSubscription(nil), t.subs...)
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *fakeTransport) Endpoint() domain.Endpoint { return t.endpoint }

func (t *fakeTransport) ProbeLiveness(ctx context.Context) error {
	if err := t.record("probe"); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.probeErr
}

func (t *fakeTransport) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	if err := t.record("nonce"); err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nonces[addr], nil
}

func (t *fakeTransport) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	if err := t.record("send"); err != nil {
		return common.Hash{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sendErr != nil {
		return common.Hash{}, t.sendErr
	}

	// raw is produced by fakeSigner: sender byte then nonce byte.
	sender := common.BytesToAddress(raw[:1])
	t.nonces[sender]++

	hash := common.BytesToHash(raw)
	if !t.noReceipts {
		status := domain.ReceiptStatusSuccessful
		if t.reverted {
			status = 0
		}
		t.head++
		t.receipts[hash] = &domain.TransactionReceipt{TxHash: hash, BlockNumber: t.head, Status: status}
	}
	return hash, nil
}

func (t *fakeTransport) TransactionReceipt(ctx context.Context, hash common.Hash) (*domain.TransactionReceipt, error) {
	if err := t.record("receipt"); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.receipts[hash]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (t *fakeTransport) BlockNumber(ctx context.Context) (uint64, error) {
	if err := t.record("blockNumber"); err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.head += t.headStep
	return t.head, nil
}

func (t *fakeTransport) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if err := t.record("call"); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.callResult, t.callErr
}

func (t *fakeTransport) Subscribe(ctx context.Context, entry domain.SubscriptionEntry) (EventSubscription, error) {
	if err := t.record("subscribe"); err != nil {
		return nil, err
	}
	sub := newFakeSubscription(entry)
	t.mu.Lock()
	t.subs = append(t.subs, sub)
	t.mu.Unlock()
	return sub, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// fakeFactory hands out fakeTransports and records every dial.
type fakeFactory struct {
	mu         sync.Mutex
	down       map[domain.Endpoint]bool
	dials      []domain.Endpoint
	transports []*fakeTransport
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{down: make(map[domain.Endpoint]bool)}
}

func (f *fakeFactory) setDown(e domain.Endpoint, down bool) {
	f.mu.Lock()
	f.down[e] = down
	f.mu.Unlock()
}

func (f *fakeFactory) Dial(ctx context.Context, endpoint domain.Endpoint) (Transport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dials = append(f.dials, endpoint)
	if f.down[endpoint] {
		return nil, errNodeDown
	}
	t := newFakeTransport(endpoint)
	f.transports = append(f.transports, t)
	return t, nil
}

func (f *fakeFactory) dialed() []domain.Endpoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Endpoint(nil), f.dials...)
}

func (f *fakeFactory) last() *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.transports) == 0 {
		return nil
	}
	return f.transports[len(f.transports)-1]
}

// fakeSigner produces a raw transaction of sender byte, nonce byte.
type fakeSigner struct {
	mu     sync.Mutex
	nonces []uint64
	err    error
}

func (s *fakeSigner) Sign(env domain.Envelope, credential string) (domain.SignedEnvelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return domain.SignedEnvelope{}, s.err
	}
	s.nonces = append(s.nonces, env.Nonce)

	raw := []byte{env.From.Bytes()[common.AddressLength-1], byte(env.Nonce)}
	return domain.SignedEnvelope{Raw: raw, Hash: common.BytesToHash(raw)}, nil
}

func (s *fakeSigner) signedNonces() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.nonces...)
}

// staticSource serves a fixed transport, or none.
type staticSource struct {
	t Transport
}

func (s staticSource) Active() (Transport, bool) {
	return s.t, s.t != nil
}

const (
	primaryURL   domain.Endpoint = "ws://primary:8546"
	secondaryURL domain.Endpoint = "ws://secondary:8546"
)

func newTestController(t *testing.T, factory *fakeFactory, interval time.Duration) *Controller {
	t.Helper()

	pair, err := domain.NewEndpointPair(string(primaryURL), string(secondaryURL))
	if err != nil {
		t.Fatal(err)
	}

	emitter := NewEmitter()
	registrar, err := NewRegistrar(domain.ContentSubscriptions(), emitter, &mockLogger{})
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultControllerConfig(pair)
	cfg.HealthInterval = interval
	cfg.ProbeTimeout = time.Second

	c, err := NewController(cfg, factory, registrar, emitter, &mockLogger{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out: %s", msg)
}

var testSender = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func testRequest() domain.TransactionRequest {
	return domain.TransactionRequest{
		Sender:     testSender,
		Credential: "0x01",
		Target:     common.HexToAddress("0x00000000000000000000000000000000000000c0"),
		Payload:    big.NewInt(1).Bytes(),
	}
}

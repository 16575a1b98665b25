package ethereum

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/contentnft-gateway/business/ledger/app"
	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/internal/apperror"
	"github.com/fd1az/contentnft-gateway/internal/logger"
)

const tracerName = "github.com/fd1az/contentnft-gateway/business/ledger/infra/ethereum"

// logBuffer is the per-subscription channel size between the rpc client
// and the decoder goroutine.
const logBuffer = 64

// Transport is a single websocket connection to a ledger node.
type Transport struct {
	endpoint domain.Endpoint
	rpc      *rpc.Client
	client   *ethclient.Client
	contract *Contract
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	closed   atomic.Bool
}

var _ app.Transport = (*Transport)(nil)

func newTransport(endpoint domain.Endpoint, c *rpc.Client, contract *Contract, log logger.LoggerInterface) *Transport {
	return &Transport{
		endpoint: endpoint,
		rpc:      c,
		client:   ethclient.NewClient(c),
		contract: contract,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
}

func (t *Transport) Endpoint() domain.Endpoint {
	return t.endpoint
}

// ProbeLiveness asks the node whether it is listening for peers. A node
// that answers false is treated as unhealthy.
func (t *Transport) ProbeLiveness(ctx context.Context) error {
	if t.closed.Load() {
		return t.unavailable("net_listening")
	}

	ctx, span := t.tracer.Start(ctx, "Transport.ProbeLiveness",
		trace.WithAttributes(attribute.String("endpoint", string(t.endpoint))),
	)
	defer span.End()

	var listening bool
	if err := t.rpc.CallContext(ctx, &listening, "net_listening"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe failed")
		return t.fail(err, apperror.CodeLivenessProbeFailed, "net_listening")
	}
	if !listening {
		span.SetStatus(codes.Error, "not listening")
		return apperror.New(apperror.CodeLivenessProbeFailed,
			apperror.WithContext("net_listening returned false"))
	}

	return nil
}

func (t *Transport) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	if t.closed.Load() {
		return 0, t.unavailable("eth_getTransactionCount")
	}
	nonce, err := t.client.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, t.fail(err, apperror.CodeNonceLookupFailed, "eth_getTransactionCount")
	}
	return nonce, nil
}

func (t *Transport) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	if t.closed.Load() {
		return common.Hash{}, t.unavailable("eth_sendRawTransaction")
	}
	var hash common.Hash
	if err := t.rpc.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, t.fail(err, apperror.CodeBroadcastRejected, "eth_sendRawTransaction")
	}
	return hash, nil
}

func (t *Transport) TransactionReceipt(ctx context.Context, hash common.Hash) (*domain.TransactionReceipt, error) {
	if t.closed.Load() {
		return nil, t.unavailable("eth_getTransactionReceipt")
	}

	r, err := t.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, t.fail(err, apperror.CodeLedgerRPCError, "eth_getTransactionReceipt")
	}

	out := &domain.TransactionReceipt{
		TxHash:    r.TxHash,
		BlockHash: r.BlockHash,
		Status:    r.Status,
		GasUsed:   r.GasUsed,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	return out, nil
}

func (t *Transport) BlockNumber(ctx context.Context) (uint64, error) {
	if t.closed.Load() {
		return 0, t.unavailable("eth_blockNumber")
	}
	n, err := t.client.BlockNumber(ctx)
	if err != nil {
		return 0, t.fail(err, apperror.CodeLedgerRPCError, "eth_blockNumber")
	}
	return n, nil
}

func (t *Transport) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if t.closed.Load() {
		return nil, t.unavailable("eth_call")
	}
	out, err := t.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, t.fail(err, apperror.CodeContractCallFailed, "eth_call")
	}
	return out, nil
}

// Subscribe opens a logs subscription filtered to the contract and the
// topic of entry.RemoteEvent.
func (t *Transport) Subscribe(ctx context.Context, entry domain.SubscriptionEntry) (app.EventSubscription, error) {
	if t.closed.Load() {
		return nil, t.unavailable("eth_subscribe")
	}

	topic, err := t.contract.EventID(entry.RemoteEvent)
	if err != nil {
		return nil, apperror.New(apperror.CodeSubscribeFailed,
			apperror.WithContext(entry.RemoteEvent), apperror.WithCause(err))
	}

	query := ethereum.FilterQuery{
		Addresses: []common.Address{t.contract.Address()},
		Topics:    [][]common.Hash{{topic}},
	}

	logs := make(chan types.Log, logBuffer)
	sub, err := t.client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, t.fail(err, apperror.CodeSubscribeFailed, entry.RemoteEvent)
	}

	s := &logSubscription{
		name:     entry.RemoteEvent,
		contract: t.contract,
		logger:   t.logger,
		sub:      sub,
		logs:     logs,
		events:   make(chan domain.RawEvent, logBuffer),
		errc:     make(chan error, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.loop()

	return s, nil
}

// Close tears down the websocket. It is safe to call more than once.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.rpc.Close()
	return nil
}

func (t *Transport) unavailable(method string) error {
	return apperror.New(apperror.CodeTransportUnavailable,
		apperror.WithContext(string(t.endpoint)+" "+method))
}

// fail maps an rpc error onto code, unless the connection itself is gone.
func (t *Transport) fail(err error, code apperror.Code, method string) error {
	if t.closed.Load() || errors.Is(err, rpc.ErrClientQuit) {
		return apperror.New(apperror.CodeTransportUnavailable,
			apperror.WithContext(string(t.endpoint)+" "+method), apperror.WithCause(err))
	}
	if errors.Is(err, context.DeadlineExceeded) && code != apperror.CodeLivenessProbeFailed {
		return apperror.New(apperror.CodeServiceTimeout,
			apperror.WithContext(method), apperror.WithCause(err))
	}
	return apperror.External(code, method, err)
}

// logSubscription decodes raw logs into RawEvents.
type logSubscription struct {
	name     string
	contract *Contract
	logger   logger.LoggerInterface
	sub      ethereum.Subscription
	logs     chan types.Log
	events   chan domain.RawEvent
	errc     chan error
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func (s *logSubscription) Events() <-chan domain.RawEvent { return s.events }
func (s *logSubscription) Err() <-chan error              { return s.errc }

func (s *logSubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.quit)
		s.sub.Unsubscribe()
		<-s.done
		close(s.errc)
	})
}

func (s *logSubscription) loop() {
	defer close(s.done)

	for {
		select {
		case <-s.quit:
			return

		case err, ok := <-s.sub.Err():
			if !ok {
				return
			}
			if err != nil {
				s.errc <- apperror.New(apperror.CodeSubscriptionStreamError,
					apperror.WithContext(s.name), apperror.WithCause(err))
			}
			return

		case l := <-s.logs:
			ev, err := s.contract.DecodeLog(s.name, l)
			if err != nil {
				s.logger.Warn(context.Background(), "dropping undecodable log",
					"event", s.name,
					"tx", l.TxHash.Hex(),
					"error", err,
				)
				continue
			}
			select {
			case s.events <- ev:
			case <-s.quit:
				return
			}
		}
	}
}

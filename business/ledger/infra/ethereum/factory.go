package ethereum

import (
	"context"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/contentnft-gateway/business/ledger/app"
	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/internal/apperror"
	"github.com/fd1az/contentnft-gateway/internal/logger"
)

// DefaultMaxMessageSize is the websocket frame limit, sized for large
// spec and object query results.
const DefaultMaxMessageSize int64 = 100000000

// Factory dials websocket transports bound to one contract.
type Factory struct {
	contract       *Contract
	maxMessageSize int64
	logger         logger.LoggerInterface
}

var _ app.TransportFactory = (*Factory)(nil)

// NewFactory returns a factory. A non-positive maxMessageSize falls back
// to DefaultMaxMessageSize.
func NewFactory(contract *Contract, maxMessageSize int64, log logger.LoggerInterface) *Factory {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	return &Factory{
		contract:       contract,
		maxMessageSize: maxMessageSize,
		logger:         log,
	}
}

// Dial opens a websocket connection to endpoint.
func (f *Factory) Dial(ctx context.Context, endpoint domain.Endpoint) (app.Transport, error) {
	c, err := rpc.DialOptions(ctx, string(endpoint),
		rpc.WithWebsocketMessageSizeLimit(f.maxMessageSize),
	)
	if err != nil {
		return nil, apperror.External(apperror.CodeTransportDialFailed, string(endpoint), err)
	}

	f.logger.Debug(ctx, "transport dialed", "endpoint", endpoint)
	return newTransport(endpoint, c, f.contract, f.logger), nil
}

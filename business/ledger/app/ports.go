// Package app contains the connection resilience manager, the signed
// transaction pipeline and the port definitions for the ledger context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
)

// Transport is one open websocket RPC connection to a ledger node.
// After Close every method fails with TRANSPORT_UNAVAILABLE.
type Transport interface {
	// Endpoint returns the URL the transport was dialed against.
	Endpoint() domain.Endpoint

	// ProbeLiveness checks that the node still answers.
	ProbeLiveness(ctx context.Context) error

	// PendingNonce returns the next nonce for addr, pending pool included.
	PendingNonce(ctx context.Context, addr common.Address) (uint64, error)

	// SendRawTransaction broadcasts a signed, serialized transaction.
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)

	// TransactionReceipt returns nil without error while the
	// transaction is not yet mined.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*domain.TransactionReceipt, error)

	// BlockNumber returns the current head.
	BlockNumber(ctx context.Context) (uint64, error)

	// CallContract runs a read-only call against the latest block.
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)

	// Subscribe starts delivering the contract event named by entry.
	Subscribe(ctx context.Context, entry domain.SubscriptionEntry) (EventSubscription, error)

	Close() error
}

// EventSubscription is a cancellable stream of raw contract events.
type EventSubscription interface {
	Events() <-chan domain.RawEvent
	// Err delivers at most one stream error and is closed by Unsubscribe.
	Err() <-chan error
	Unsubscribe()
}

// TransportFactory opens transports.
type TransportFactory interface {
	Dial(ctx context.Context, endpoint domain.Endpoint) (Transport, error)
}

// Signer turns an envelope into a signed, serialized transaction. The
// chain identity is fixed when the signer is built.
type Signer interface {
	Sign(env domain.Envelope, credential string) (domain.SignedEnvelope, error)
}

// TransportSource hands out the currently active transport.
type TransportSource interface {
	Active() (Transport, bool)
}

// ContentCodec encodes ContentNFT calls and decodes their results.
type ContentCodec interface {
	Address() common.Address
	EncodeDesign(p domain.DesignParams) ([]byte, error)
	EncodeMint(p domain.MintParams) ([]byte, error)
	EncodeTransfer(p domain.TransferParams) ([]byte, error)
	EncodeTransferFrom(p domain.TransferFromParams) ([]byte, error)
	EncodeQuery(q domain.Query, args ...any) ([]byte, error)
	DecodeQuery(q domain.Query, data []byte, out any) error
}

package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/internal/apperror"
	"github.com/fd1az/contentnft-gateway/internal/circuitbreaker"
	"github.com/fd1az/contentnft-gateway/internal/logger"
	"github.com/fd1az/contentnft-gateway/internal/ratelimit"
)

// LedgerService is the ContentNFT facade: state-changing operations go
// through the Submitter, read-only queries run on the active transport.
type LedgerService struct {
	controller *Controller
	submitter  *Submitter
	codec      ContentCodec
	limiter    *ratelimit.Limiter
	cb         *circuitbreaker.CircuitBreaker[[]byte]
	logger     logger.LoggerInterface

	queries metric.Int64Counter
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(
	controller *Controller,
	submitter *Submitter,
	codec ContentCodec,
	limiter *ratelimit.Limiter,
	log logger.LoggerInterface,
) (*LedgerService, error) {
	s := &LedgerService{
		controller: controller,
		submitter:  submitter,
		codec:      codec,
		limiter:    limiter,
		logger:     log,
	}

	cbCfg := circuitbreaker.DefaultConfig("ledger-query")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	// A missing transport is a failover in progress, not a sick node.
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil || apperror.HasCode(err, apperror.CodeTransportUnavailable)
	}
	s.cb = circuitbreaker.New[[]byte](cbCfg)

	var err error
	s.queries, err = otel.Meter(meterName).Int64Counter(
		"ledger_queries_total",
		metric.WithDescription("Read-only contract calls, by method and outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Controller returns the connection controller.
func (s *LedgerService) Controller() *Controller {
	return s.controller
}

// Status returns the connection health.
func (s *LedgerService) Status() domain.HealthStatus {
	return s.controller.Status()
}

// Design registers a new digital content spec.
func (s *LedgerService) Design(ctx context.Context, acct domain.Account, p domain.DesignParams) (common.Hash, error) {
	data, err := s.codec.EncodeDesign(p)
	if err != nil {
		return common.Hash{}, apperror.Wrap(err, apperror.CodeEncodingFailed, "design")
	}
	return s.submitter.Submit(ctx, acct.Request(s.codec.Address(), data))
}

// Mint mints an object of an existing spec.
func (s *LedgerService) Mint(ctx context.Context, acct domain.Account, p domain.MintParams) (common.Hash, error) {
	data, err := s.codec.EncodeMint(p)
	if err != nil {
		return common.Hash{}, apperror.Wrap(err, apperror.CodeEncodingFailed, "mint")
	}
	return s.submitter.Submit(ctx, acct.Request(s.codec.Address(), data))
}

// Transfer moves an object owned by acct.
func (s *LedgerService) Transfer(ctx context.Context, acct domain.Account, p domain.TransferParams) (common.Hash, error) {
	data, err := s.codec.EncodeTransfer(p)
	if err != nil {
		return common.Hash{}, apperror.Wrap(err, apperror.CodeEncodingFailed, "transfer")
	}
	return s.submitter.Submit(ctx, acct.Request(s.codec.Address(), data))
}

// TransferFrom moves an object on behalf of its owner.
func (s *LedgerService) TransferFrom(ctx context.Context, acct domain.Account, p domain.TransferFromParams) (common.Hash, error) {
	data, err := s.codec.EncodeTransferFrom(p)
	if err != nil {
		return common.Hash{}, apperror.Wrap(err, apperror.CodeEncodingFailed, "transferFrom")
	}
	return s.submitter.Submit(ctx, acct.Request(s.codec.Address(), data))
}

// ObjectIndexOf returns the index of an object within its spec.
func (s *LedgerService) ObjectIndexOf(ctx context.Context, objectID *big.Int) (*big.Int, error) {
	var out *big.Int
	err := s.query(ctx, domain.QueryObjectIndexOf, &out, objectID)
	return out, err
}

// OwnedSpecs returns the spec ids designed by owner.
func (s *LedgerService) OwnedSpecs(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	var out []*big.Int
	err := s.query(ctx, domain.QueryOwnedSpecs, &out, owner)
	return out, err
}

// GetDigitalContentSpec returns a spec.
func (s *LedgerService) GetDigitalContentSpec(ctx context.Context, specID *big.Int) (domain.DigitalContentSpec, error) {
	var out domain.DigitalContentSpec
	err := s.query(ctx, domain.QueryGetDigitalContentSpec, &out, specID)
	return out, err
}

// GetDigitalContentObject returns an object.
func (s *LedgerService) GetDigitalContentObject(ctx context.Context, objectID *big.Int) (domain.DigitalContentObject, error) {
	var out domain.DigitalContentObject
	err := s.query(ctx, domain.QueryGetDigitalContentObject, &out, objectID)
	return out, err
}

// SpecOwnerOf returns the designer of a spec.
func (s *LedgerService) SpecOwnerOf(ctx context.Context, specID *big.Int) (common.Address, error) {
	var out common.Address
	err := s.query(ctx, domain.QuerySpecOwnerOf, &out, specID)
	return out, err
}

// TotalSupplyOf returns how many objects of a spec were minted.
func (s *LedgerService) TotalSupplyOf(ctx context.Context, specID *big.Int) (*big.Int, error) {
	var out *big.Int
	err := s.query(ctx, domain.QueryTotalSupplyOf, &out, specID)
	return out, err
}

// ObjectBalanceOf returns how many objects owner holds.
func (s *LedgerService) ObjectBalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	var out *big.Int
	err := s.query(ctx, domain.QueryObjectBalanceOf, &out, owner)
	return out, err
}

// OwnedObjectsOf returns the object ids owner holds.
func (s *LedgerService) OwnedObjectsOf(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	var out []*big.Int
	err := s.query(ctx, domain.QueryOwnedObjectsOf, &out, owner)
	return out, err
}

// GetNumberOfObjects returns the number of minted objects.
func (s *LedgerService) GetNumberOfObjects(ctx context.Context) (*big.Int, error) {
	var out *big.Int
	err := s.query(ctx, domain.QueryGetNumberOfObjects, &out)
	return out, err
}

// GetContractOwner returns the contract owner.
func (s *LedgerService) GetContractOwner(ctx context.Context) (common.Address, error) {
	var out common.Address
	err := s.query(ctx, domain.QueryGetContractOwner, &out)
	return out, err
}

func (s *LedgerService) query(ctx context.Context, q domain.Query, out any, args ...any) (err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(apperror.GetCode(err))
		}
		s.queries.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", string(q)),
			attribute.String("outcome", outcome),
		))
	}()

	data, err := s.codec.EncodeQuery(q, args...)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeEncodingFailed, string(q))
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err), apperror.WithContext(string(q)))
	}

	result, err := s.cb.Execute(func() ([]byte, error) {
		t, ok := s.controller.Active()
		if !ok {
			return nil, apperror.New(apperror.CodeTransportUnavailable, apperror.WithContext(string(q)))
		}
		return t.CallContract(ctx, s.codec.Address(), data)
	})
	if err != nil {
		if circuitbreaker.IsOpen(err) {
			return apperror.New(apperror.CodeCircuitOpen, apperror.WithCause(err), apperror.WithContext(string(q)))
		}
		return apperror.Wrap(err, apperror.CodeContractCallFailed, string(q))
	}

	if err := s.codec.DecodeQuery(q, result, out); err != nil {
		return apperror.Wrap(err, apperror.CodeDecodingFailed, string(q))
	}
	return nil
}

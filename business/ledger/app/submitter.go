package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/internal/apm"
	"github.com/fd1az/contentnft-gateway/internal/apperror"
	"github.com/fd1az/contentnft-gateway/internal/logger"
)

// SubmitterConfig holds transaction submission tuning.
type SubmitterConfig struct {
	GasLimit            uint64
	ConfirmBlockTimeout uint64
	ReceiptPollInterval time.Duration
}

// DefaultSubmitterConfig returns the private chain defaults.
func DefaultSubmitterConfig() SubmitterConfig {
	return SubmitterConfig{
		GasLimit:            domain.DefaultGasLimit,
		ConfirmBlockTimeout: domain.DefaultConfirmBlockTimeout,
		ReceiptPollInterval: time.Second,
	}
}

type submitterMetrics struct {
	submissions metric.Int64Counter
	latency     metric.Float64Histogram
}

// Submitter signs and broadcasts transactions on the active transport
// and waits for their first confirmation.
type Submitter struct {
	source TransportSource
	signer Signer
	cfg    SubmitterConfig
	logger logger.LoggerInterface

	tracer  apm.Tracer
	metrics *submitterMetrics
}

// NewSubmitter creates a Submitter.
func NewSubmitter(source TransportSource, signer Signer, cfg SubmitterConfig, log logger.LoggerInterface) (*Submitter, error) {
	if cfg.GasLimit == 0 {
		cfg.GasLimit = domain.DefaultGasLimit
	}
	if cfg.ConfirmBlockTimeout == 0 {
		cfg.ConfirmBlockTimeout = domain.DefaultConfirmBlockTimeout
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = time.Second
	}

	s := &Submitter{
		source: source,
		signer: signer,
		cfg:    cfg,
		logger: log,
		tracer: apm.NewTracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Submitter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &submitterMetrics{}

	s.metrics.submissions, err = meter.Int64Counter(
		"ledger_submissions_total",
		metric.WithDescription("Transactions submitted, by outcome"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return err
	}

	s.metrics.latency, err = meter.Float64Histogram(
		"ledger_submission_latency_ms",
		metric.WithDescription("Time from nonce lookup to first confirmation"),
		metric.WithUnit("ms"),
	)
	return err
}

// Submit runs the full pipeline for req and returns the transaction
// hash once the transaction is in a block. The transport is captured
// when the call starts; if it is torn down mid-flight the call fails
// with TRANSPORT_UNAVAILABLE and is not retried elsewhere.
func (s *Submitter) Submit(ctx context.Context, req domain.TransactionRequest) (common.Hash, error) {
	receipt, err := s.SubmitAndWait(ctx, req)
	if err != nil {
		return common.Hash{}, err
	}
	return receipt.TxHash, nil
}

// SubmitAndWait is Submit returning the full receipt.
func (s *Submitter) SubmitAndWait(ctx context.Context, req domain.TransactionRequest) (domain.TransactionReceipt, error) {
	submissionID := uuid.NewString()
	start := time.Now()

	ctx, span := s.tracer.StartSpanFromContext(ctx, "ledger.submit",
		trace.WithAttributes(
			attribute.String("submission_id", submissionID),
			attribute.String("from", req.Sender.Hex()),
			attribute.String("to", req.Target.Hex()),
		))
	defer span.End()

	receipt, err := s.submit(ctx, submissionID, req)

	outcome := "confirmed"
	if err != nil {
		outcome = string(apperror.GetCode(err))
		span.NoticeError(err)
		s.logger.Error(ctx, "submission failed", "submission_id", submissionID, "error", err)
	} else {
		s.metrics.latency.Record(ctx, float64(time.Since(start).Milliseconds()))
		s.logger.Info(ctx, "transaction confirmed",
			"submission_id", submissionID,
			"tx_hash", receipt.TxHash.Hex(),
			"block", receipt.BlockNumber)
	}
	s.metrics.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	return receipt, err
}

func (s *Submitter) submit(ctx context.Context, submissionID string, req domain.TransactionRequest) (domain.TransactionReceipt, error) {
	t, ok := s.source.Active()
	if !ok {
		return domain.TransactionReceipt{}, apperror.New(apperror.CodeTransportUnavailable,
			apperror.WithContext("submit"))
	}

	nonce, err := t.PendingNonce(ctx, req.Sender)
	if err != nil {
		return domain.TransactionReceipt{}, apperror.Wrap(err, apperror.CodeNonceLookupFailed, req.Sender.Hex())
	}

	env := domain.NewEnvelope(req, nonce, s.cfg.GasLimit)

	signed, err := s.signer.Sign(env, req.Credential)
	if err != nil {
		return domain.TransactionReceipt{}, apperror.Wrap(err, apperror.CodeSigningFailed, "sign envelope")
	}

	hash, err := t.SendRawTransaction(ctx, signed.Raw)
	if err != nil {
		return domain.TransactionReceipt{}, apperror.Wrap(err, apperror.CodeBroadcastRejected, signed.Hash.Hex())
	}

	s.logger.Debug(ctx, "transaction broadcast",
		"submission_id", submissionID,
		"tx_hash", hash.Hex(),
		"nonce", nonce,
		"endpoint", t.Endpoint())

	return s.awaitConfirmation(ctx, t, hash)
}

// awaitConfirmation polls until the receipt is in a block, the head
// moves past the confirmation window, or ctx ends.
func (s *Submitter) awaitConfirmation(ctx context.Context, t Transport, hash common.Hash) (domain.TransactionReceipt, error) {
	ticker := time.NewTicker(s.cfg.ReceiptPollInterval)
	defer ticker.Stop()

	var startHead uint64
	haveStart := false

	for {
		receipt, err := t.TransactionReceipt(ctx, hash)
		if err != nil {
			return domain.TransactionReceipt{}, apperror.Wrap(err, apperror.CodeLedgerRPCError, "receipt "+hash.Hex())
		}

		if receipt != nil {
			if !receipt.Succeeded() {
				return *receipt, apperror.New(apperror.CodeBroadcastRejected,
					apperror.WithContext("transaction reverted "+hash.Hex()))
			}
			if receipt.Confirmations == 0 {
				receipt.Confirmations = 1
			}
			return *receipt, nil
		}

		head, err := t.BlockNumber(ctx)
		if err != nil {
			return domain.TransactionReceipt{}, apperror.Wrap(err, apperror.CodeLedgerRPCError, "block number")
		}
		if !haveStart {
			startHead, haveStart = head, true
		} else if head > startHead && head-startHead > s.cfg.ConfirmBlockTimeout {
			return domain.TransactionReceipt{}, apperror.New(apperror.CodeConfirmationTimeout,
				apperror.WithContext(hash.Hex()))
		}

		select {
		case <-ctx.Done():
			return domain.TransactionReceipt{}, apperror.New(apperror.CodeServiceTimeout,
				apperror.WithCause(ctx.Err()),
				apperror.WithContext("waiting for "+hash.Hex()))
		case <-ticker.C:
		}
	}
}

package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeServiceTimeout     Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Ledger connection codes
const (
	CodeTransportUnavailable    Code = "TRANSPORT_UNAVAILABLE"
	CodeTransportDialFailed     Code = "TRANSPORT_DIAL_FAILED"
	CodeLivenessProbeFailed     Code = "LIVENESS_PROBE_FAILED"
	CodeSubscribeFailed         Code = "SUBSCRIBE_FAILED"
	CodeSubscriptionStreamError Code = "SUBSCRIPTION_STREAM_ERROR"
	CodeLedgerRPCError          Code = "LEDGER_RPC_ERROR"
)

// Transaction submission codes
const (
	CodeNonceLookupFailed   Code = "NONCE_LOOKUP_FAILED"
	CodeSigningFailed       Code = "SIGNING_FAILED"
	CodeBroadcastRejected   Code = "BROADCAST_REJECTED"
	CodeConfirmationTimeout Code = "CONFIRMATION_TIMEOUT"
	CodeEncodingFailed      Code = "ENCODING_FAILED"
)

// Contract query codes
const (
	CodeContractCallFailed Code = "CONTRACT_CALL_FAILED"
	CodeDecodingFailed     Code = "DECODING_FAILED"

	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)

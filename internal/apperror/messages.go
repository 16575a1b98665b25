package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeServiceTimeout:     "Service request timeout",
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeRateLimitExceeded:  "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeTransportUnavailable:    "No active ledger transport",
	CodeTransportDialFailed:     "Failed to dial ledger endpoint",
	CodeLivenessProbeFailed:     "Ledger liveness probe failed",
	CodeSubscribeFailed:         "Failed to subscribe to ledger events",
	CodeSubscriptionStreamError: "Ledger event stream error",
	CodeLedgerRPCError:          "Ledger RPC call failed",

	CodeNonceLookupFailed:   "Failed to fetch sender nonce",
	CodeSigningFailed:       "Failed to sign transaction",
	CodeBroadcastRejected:   "Transaction rejected by the ledger",
	CodeConfirmationTimeout: "Transaction was not confirmed in time",
	CodeEncodingFailed:      "Failed to encode contract call",

	CodeContractCallFailed: "Contract call failed",
	CodeDecodingFailed:     "Failed to decode contract result",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}

package apperror

// Code identifies a class of failure.
type Code string

// General codes
const (
	CodeValidationError    Code = "VALIDATION_ERROR"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeNotFound           Code = "NOT_FOUND"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Swap workflow codes
const (
	CodeQuoteFailed       Code = "QUOTE_FAILED"
	CodeSwapBuildFailed   Code = "SWAP_BUILD_FAILED"
	CodeSigningFailed     Code = "SIGNING_FAILED"
	CodeSubmissionFailed  Code = "SUBMISSION_FAILED"
	CodePersistenceFailed Code = "PERSISTENCE_FAILED"
	CodeNoSigner          Code = "NO_SIGNER"
	CodeNoQuote           Code = "NO_QUOTE"
	CodeSwapInProgress    Code = "SWAP_IN_PROGRESS"
	CodeBackendError      Code = "BACKEND_ERROR"
)

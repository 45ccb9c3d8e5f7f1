package apperror

var messages = map[Code]string{
	CodeValidationError:    "Invalid input",
	CodeConfigurationError: "Configuration error",
	CodeNotFound:           "Resource not found",
	CodeUnauthorized:       "Authentication required",
	CodeRateLimitExceeded:  "Rate limit exceeded",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	CodeQuoteFailed:       "Failed to get quote",
	CodeSwapBuildFailed:   "Failed to build swap transaction",
	CodeSigningFailed:     "Wallet rejected or failed to sign the transaction",
	CodeSubmissionFailed:  "Transaction submission failed, verify on an explorer before retrying",
	CodePersistenceFailed: "Swap succeeded but the transaction record could not be saved",
	CodeNoSigner:          "No wallet connected",
	CodeNoQuote:           "No quote available",
	CodeSwapInProgress:    "A swap is already in progress",
	CodeBackendError:      "API request failed",
}

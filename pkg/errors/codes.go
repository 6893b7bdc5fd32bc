package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal      ErrorCode = "COMMON_001"
	ErrCodeBadRequest    ErrorCode = "COMMON_002"
	ErrCodeNotFound      ErrorCode = "COMMON_003"
	ErrCodeConflict      ErrorCode = "COMMON_004"
	ErrCodeConfigInvalid ErrorCode = "COMMON_005"
)

// Upstream data-source (USPTO Open Data Portal) error codes.  These mirror the
// client-side failure taxonomy: AUTH is fatal to a poll run, NOT_FOUND and
// NETWORK are per-resource skips, RATE_LIMITED triggers the capped backoff.
const (
	ErrCodeSourceAuth        ErrorCode = "SRC_001"
	ErrCodeSourceNotFound    ErrorCode = "SRC_002"
	ErrCodeSourceRateLimited ErrorCode = "SRC_003"
	ErrCodeSourceNetwork     ErrorCode = "SRC_004"
	ErrCodeSourceMalformed   ErrorCode = "SRC_005"
	ErrCodeSourceUnavailable ErrorCode = "SRC_006"
	ErrCodeSourceNoAPIKey    ErrorCode = "SRC_007"
)

// Parser error codes.  Malformed means a structurally invalid payload
// (e.g. non-object top level); missing optional containers are never errors.
const (
	ErrCodeParseMalformed ErrorCode = "PRS_001"
)

// Persistence error codes.
const (
	ErrCodeDatabaseError    ErrorCode = "DB_001"
	ErrCodeDBConstraint     ErrorCode = "DB_002"
	ErrCodePatentNotFound   ErrorCode = "DB_003"
	ErrCodePatentExists     ErrorCode = "DB_004"
	ErrCodeSettingNotFound  ErrorCode = "DB_005"
)

// Secret-store error codes.
const (
	ErrCodeSecretStore ErrorCode = "SEC_001"
)

// Short aliases used at call sites throughout the codebase.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeConfig       = ErrCodeConfigInvalid
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")

	CodeSourceAuth        = ErrCodeSourceAuth
	CodeSourceNotFound    = ErrCodeSourceNotFound
	CodeSourceRateLimited = ErrCodeSourceRateLimited
	CodeSourceNetwork     = ErrCodeSourceNetwork
	CodeSourceMalformed   = ErrCodeSourceMalformed
	CodeSourceUnavailable = ErrCodeSourceUnavailable
	CodeSourceNoAPIKey    = ErrCodeSourceNoAPIKey

	CodeParseMalformed = ErrCodeParseMalformed

	CodeDatabaseError   = ErrCodeDatabaseError
	CodeDBConstraint    = ErrCodeDBConstraint
	CodePatentNotFound  = ErrCodePatentNotFound
	CodePatentExists    = ErrCodePatentExists
	CodeSettingNotFound = ErrCodeSettingNotFound

	CodeSecretStore = ErrCodeSecretStore
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes for the local
// presentation API.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeConflict:      http.StatusConflict,
	ErrCodeConfigInvalid: http.StatusInternalServerError,

	ErrCodeSourceAuth:        http.StatusBadGateway,
	ErrCodeSourceNotFound:    http.StatusNotFound,
	ErrCodeSourceRateLimited: http.StatusTooManyRequests,
	ErrCodeSourceNetwork:     http.StatusBadGateway,
	ErrCodeSourceMalformed:   http.StatusBadGateway,
	ErrCodeSourceUnavailable: http.StatusServiceUnavailable,
	ErrCodeSourceNoAPIKey:    http.StatusPreconditionRequired,

	ErrCodeParseMalformed: http.StatusBadGateway,

	ErrCodeDatabaseError:   http.StatusInternalServerError,
	ErrCodeDBConstraint:    http.StatusConflict,
	ErrCodePatentNotFound:  http.StatusNotFound,
	ErrCodePatentExists:    http.StatusConflict,
	ErrCodeSettingNotFound: http.StatusNotFound,

	ErrCodeSecretStore: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:      "internal error",
	ErrCodeBadRequest:    "bad request",
	ErrCodeNotFound:      "resource not found",
	ErrCodeConflict:      "resource conflict",
	ErrCodeConfigInvalid: "invalid configuration",

	ErrCodeSourceAuth:        "USPTO API key rejected",
	ErrCodeSourceNotFound:    "resource not found at USPTO",
	ErrCodeSourceRateLimited: "USPTO API rate limited",
	ErrCodeSourceNetwork:     "could not reach USPTO API",
	ErrCodeSourceMalformed:   "malformed USPTO response",
	ErrCodeSourceUnavailable: "USPTO API unavailable",
	ErrCodeSourceNoAPIKey:    "no USPTO API key configured",

	ErrCodeParseMalformed: "malformed payload",

	ErrCodeDatabaseError:   "database error",
	ErrCodeDBConstraint:    "database constraint violation",
	ErrCodePatentNotFound:  "patent not tracked",
	ErrCodePatentExists:    "patent already tracked",
	ErrCodeSettingNotFound: "setting not found",

	ErrCodeSecretStore: "credential store error",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode ("SRC", "DB", ...).
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

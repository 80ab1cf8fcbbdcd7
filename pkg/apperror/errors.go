package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether err (or anything it wraps) is an AppError with code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Governance error codes. Each kind is a terminal failure of the call that
// produced it and leaves ledger state unchanged.
const (
	CodeInvalidAmount      = "GOV_001"
	CodeInvalidBeneficiary = "GOV_002"
	CodeUnauthorized       = "GOV_003"
	CodeNotFound           = "GOV_004"
	CodeVotingClosed       = "GOV_005"
	CodeVotingOpen         = "GOV_006"
	CodeAlreadyVoted       = "GOV_007"
	CodeAlreadyPaid        = "GOV_008"
	CodeProposalRejected   = "GOV_009"
	CodeInsufficientFunds  = "GOV_010"
)

// ---- Governance (GOV) ----

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidAmount, "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrInvalidBeneficiary() *AppError {
	return New(CodeInvalidBeneficiary, "Beneficiary must be a non-zero address", http.StatusBadRequest)
}

func ErrUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusForbidden)
}

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ErrVotingClosed keeps the wording the front end matches on.
func ErrVotingClosed() *AppError {
	return New(CodeVotingClosed, "Time has already passed", http.StatusConflict)
}

func ErrVotingOpen() *AppError {
	return New(CodeVotingOpen, "Voting period has not ended", http.StatusConflict)
}

// ErrAlreadyVoted keeps the wording the front end matches on.
func ErrAlreadyVoted() *AppError {
	return New(CodeAlreadyVoted, "double voting is not allowed", http.StatusConflict)
}

func ErrAlreadyPaid() *AppError {
	return New(CodeAlreadyPaid, "Proposal has already been paid", http.StatusConflict)
}

func ErrProposalRejected() *AppError {
	return New(CodeProposalRejected, "Proposal did not pass", http.StatusUnprocessableEntity)
}

func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient balance in treasury", http.StatusPaymentRequired)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Request (REQ) ----

// Validation returns a malformed-request error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}

// ErrIdempotencyInProgress is returned while an earlier request with the same
// Idempotency-Key is still being processed.
func ErrIdempotencyInProgress() *AppError {
	return New("REQ_002", "A request with this Idempotency-Key is already in progress", http.StatusConflict)
}

// ErrPayloadTooLarge rejects bodies over the configured limit.
func ErrPayloadTooLarge() *AppError {
	return New("REQ_003", "Request body too large", http.StatusRequestEntityTooLarge)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrLedgerNotInitialized() *AppError {
	return New("SYS_002", "Ledger has not been initialized", http.StatusServiceUnavailable)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Package rfqerr defines the typed error taxonomy raised by every
// component of the quote-orchestration pipeline. The transport layer is
// the only place that translates these into wire responses.
package rfqerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-exported so callers never need to import errors directly alongside us.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Error codes from the spec's error taxonomy (spec.md §7).
const (
	CodeChainNotSupported      = "CHAIN_NOT_SUPPORTED"
	CodeChainPaused             = "CHAIN_PAUSED"
	CodePairNotEnabled          = "PAIR_NOT_ENABLED"
	CodeStrategyNotConfigured   = "STRATEGY_NOT_CONFIGURED"
	CodeStrategyNotEnabled      = "STRATEGY_NOT_ENABLED"
	CodeStrategyNotFound        = "STRATEGY_NOT_FOUND"
	CodePricingUpstreamFailed   = "PRICING_UPSTREAM_FAILED"
	CodeStrategyUpstreamFailed  = "STRATEGY_UPSTREAM_FAILED"
	CodeInvalidAmount           = "INVALID_AMOUNT"
	CodeRequestTimeout          = "REQUEST_TIMEOUT"
	CodeQuoteNotFound           = "QUOTE_NOT_FOUND"
	CodeInternalServerError     = "INTERNAL_SERVER_ERROR"
	CodeInvalidRequest          = "INVALID_REQUEST"
)

// Error is the typed failure every component raises. The transport layer
// renders it as {code, message, statusCode, requestId, path, timestamp}.
type Error struct {
	code       string
	message    string
	statusCode int
	cause      error
}

var _ error = (*Error)(nil)

func New(code, message string, statusCode int) *Error {
	return &Error{code: code, message: message, statusCode: statusCode}
}

func (e *Error) Code() string       { return e.code }
func (e *Error) Message() string    { return e.message }
func (e *Error) StatusCode() int    { return e.statusCode }
func (e *Error) Unwrap() error      { return e.cause }

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Wrap attaches a cause without changing code/message/status, returning a copy.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

func ChainNotSupported(chainID int64) *Error {
	return New(CodeChainNotSupported, fmt.Sprintf("chain %d is not configured", chainID), http.StatusBadRequest)
}

func ChainPaused(chainID int64) *Error {
	return New(CodeChainPaused, fmt.Sprintf("chain %d is paused", chainID), http.StatusBadRequest)
}

func PairNotEnabled(sell, buy string) *Error {
	return New(CodePairNotEnabled, fmt.Sprintf("pair %s/%s is not enabled", sell, buy), http.StatusBadRequest)
}

func StrategyNotConfigured(chainID int64) *Error {
	return New(CodeStrategyNotConfigured, fmt.Sprintf("chain %d has no active strategy", chainID), http.StatusBadRequest)
}

func StrategyNotEnabled(strategyID string) *Error {
	return New(CodeStrategyNotEnabled, fmt.Sprintf("strategy %s is disabled", strategyID), http.StatusBadRequest)
}

func StrategyNotFound(strategyID string) *Error {
	return New(CodeStrategyNotFound, fmt.Sprintf("strategy %s not found", strategyID), http.StatusNotFound)
}

func PricingUpstreamFailed(detail string) *Error {
	return New(CodePricingUpstreamFailed, "pricing service failed: "+detail, http.StatusBadGateway)
}

func StrategyUpstreamFailed(detail string) *Error {
	return New(CodeStrategyUpstreamFailed, "strategy service failed: "+detail, http.StatusBadGateway)
}

func InvalidAmount(detail string) *Error {
	return New(CodeInvalidAmount, "invalid amount: "+detail, http.StatusBadRequest)
}

func RequestTimeout() *Error {
	return New(CodeRequestTimeout, "request deadline exceeded", http.StatusGatewayTimeout)
}

func QuoteNotFound(quoteID string) *Error {
	return New(CodeQuoteNotFound, fmt.Sprintf("quote %s not found", quoteID), http.StatusNotFound)
}

func Internal(detail string) *Error {
	return New(CodeInternalServerError, detail, http.StatusInternalServerError)
}

func InvalidRequest(detail string) *Error {
	return New(CodeInvalidRequest, detail, http.StatusBadRequest)
}

// FromError maps an arbitrary error to a rendered *Error, defaulting to
// INTERNAL_SERVER_ERROR when it isn't already one of ours.
func FromError(err error) *Error {
	var e *Error
	if As(err, &e) {
		return e
	}
	return Internal(err.Error())
}

// Package errors maps run failures onto HTTP responses and JSON-RPC error
// codes, and recovers handler panics.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/copyleftdev/firefly/internal/optimization"
)

var (
	// ErrNotFound is returned for unknown run identifiers.
	ErrNotFound = stderrors.New("run not found")
	// ErrFinished is returned when cancelling a run that already ended.
	ErrFinished = stderrors.New("run already finished")
	// ErrBusy is returned when the server holds too many runs.
	ErrBusy = stderrors.New("too many runs")
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
	CodeNotFound       = -32001
	CodeConflict       = -32002
	CodeBusy           = -32003
)

// HTTPStatus returns the status code a REST response for err should carry.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrFinished):
		return http.StatusConflict
	case stderrors.Is(err, ErrBusy):
		return http.StatusTooManyRequests
	case tooLarge(err):
		return http.StatusRequestEntityTooLarge
	case optimization.IsKind(err, optimization.KindConfig):
		return http.StatusBadRequest
	case stderrors.Is(err, context.Canceled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RPCCode returns the JSON-RPC error code for err.
func RPCCode(err error) int {
	switch {
	case stderrors.Is(err, ErrNotFound):
		return CodeNotFound
	case stderrors.Is(err, ErrFinished):
		return CodeConflict
	case stderrors.Is(err, ErrBusy):
		return CodeBusy
	case tooLarge(err):
		return CodeInvalidRequest
	case optimization.IsKind(err, optimization.KindConfig):
		return CodeInvalidParams
	default:
		return CodeServerError
	}
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return stderrors.As(err, &maxErr)
}

// WriteJSON writes err as {"error": "..."} with its HTTP status.
func WriteJSON(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	apierrors "github.com/copyleftdev/firefly/internal/errors"
	"github.com/copyleftdev/firefly/internal/optimization"
	"github.com/copyleftdev/firefly/internal/optimization/objective"
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type runIDParams struct {
	RunID string `json:"run_id"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		if apierrors.HTTPStatus(err) == http.StatusRequestEntityTooLarge {
			s.respondWithError(w, apierrors.CodeInvalidRequest, "Request too large", nil)
			return
		}
		s.respondWithError(w, apierrors.CodeParseError, "Parse error", nil)
		return
	}

	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithError(w, apierrors.CodeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "firefly.start":
		var req RunRequest
		if err = decodeParams(request.Params, &req); err == nil {
			result, err = s.Start(req)
		}
	case "firefly.status":
		var p runIDParams
		if err = decodeParams(request.Params, &p); err == nil {
			result, err = s.Status(p.RunID)
		}
	case "firefly.cancel":
		var p runIDParams
		if err = decodeParams(request.Params, &p); err == nil {
			if err = s.Cancel(p.RunID); err == nil {
				result = map[string]string{"status": "cancellation requested"}
			}
		}
	case "firefly.list":
		result = s.List()
	case "firefly.objectives":
		result = objective.Names()
	default:
		s.respondWithError(w, apierrors.CodeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, apierrors.RPCCode(err), err.Error(), request.ID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

// decodeParams accepts either a params object or a one-element array
// holding it.
func decodeParams(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return optimization.NewError(optimization.KindConfig, "missing required parameters")
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return optimization.WrapError(err, optimization.KindConfig, "invalid parameter format")
		}
		if len(list) != 1 {
			return optimization.NewErrorf(optimization.KindConfig, "expected one parameter object, got %d", len(list))
		}
		raw = list[0]
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return optimization.WrapError(err, optimization.KindConfig, "invalid parameter format, expected object")
	}
	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("RPC error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}

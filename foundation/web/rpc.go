package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// RPCRequest is the JSON-RPC 2.0 request envelope. Batch requests are not
// supported: the body must be a single object.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// RPCError is the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// RPCResponse is the JSON-RPC 2.0 response envelope. Exactly one of Result
// and Error is set.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// DecodeRPC reads the request body and parses the JSON-RPC envelope.
func DecodeRPC(r *http.Request) (RPCRequest, error) {
	var req RPCRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		return RPCRequest{}, fmt.Errorf("unable to decode envelope: %w", err)
	}
	if req.Method == "" {
		return RPCRequest{}, fmt.Errorf("missing method")
	}

	return req, nil
}

// ParseParams unmarshals the raw params into the provided model and
// validates it against its declared tags.
func ParseParams(params json.RawMessage, val any) error {
	if len(params) == 0 {
		return fmt.Errorf("missing params")
	}
	if err := json.Unmarshal(params, val); err != nil {
		return fmt.Errorf("unable to decode params: %w", err)
	}
	if err := Check(val); err != nil {
		return err
	}

	return nil
}

// RespondRPC sends a JSON-RPC success response carrying the result.
func RespondRPC(ctx context.Context, w http.ResponseWriter, id json.RawMessage, result any) error {
	resp := RPCResponse{
		JSONRPC: "2.0",
		ID:      normalizeID(id),
		Result:  result,
	}

	return Respond(ctx, w, resp, http.StatusOK)
}

// RespondRPCError sends a JSON-RPC error response. Per the JSON-RPC over
// HTTP convention the HTTP status is still 200; the error lives in the
// envelope.
func RespondRPCError(ctx context.Context, w http.ResponseWriter, id json.RawMessage, rpcErr RPCError) error {
	resp := RPCResponse{
		JSONRPC: "2.0",
		ID:      normalizeID(id),
		Error:   &rpcErr,
	}

	return Respond(ctx, w, resp, http.StatusOK)
}

// normalizeID keeps an absent request id encodable as the JSON null the
// protocol requires.
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603

	// ErrQueueFullCode is a server error: the collector should retry later.
	ErrQueueFullCode = -32000
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ParseRequest parses and validates a JSON-RPC request payload.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("parse error: %w", err)
	}
	if err := validate(req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// ParseBatch parses either a single request or a JSON array of requests.
// batch reports whether the payload was an array. Invalid members of a batch
// are returned as-is so each can be answered on its own.
func ParseBatch(body io.Reader) (reqs []Request, batch bool, err error) {
	br := bufio.NewReader(body)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, false, fmt.Errorf("parse error: %w", err)
	}
	if first != '[' {
		req, err := ParseRequest(br)
		if err != nil {
			return nil, false, err
		}
		return []Request{req}, false, nil
	}

	if err := json.NewDecoder(br).Decode(&reqs); err != nil {
		return nil, true, fmt.Errorf("parse error: %w", err)
	}
	if len(reqs) == 0 {
		return nil, true, fmt.Errorf("invalid request: empty batch")
	}
	return reqs, true, nil
}

func validate(req Request) error {
	if req.JSONRPC != "2.0" || req.Method == "" {
		return fmt.Errorf("invalid request")
	}
	return nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// NewResult builds a success response.
func NewResult(id any, result any) Response {
	return Response{JSONRPC: "2.0", Result: result, ID: id}
}

// NewError builds an error response.
func NewError(id any, code int, message string, data any) Response {
	return Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
}

// WriteResult writes a JSON-RPC success response.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, http.StatusOK, NewResult(id, result))
}

// WriteError writes a JSON-RPC error response.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, http.StatusOK, NewError(id, code, message, data))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

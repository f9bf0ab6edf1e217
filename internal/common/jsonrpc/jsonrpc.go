package jsonrpc

import (
	"errors"
	"fmt"

	json "github.com/json-iterator/go"
)

// Helper functions to deal with JSON-RPC 2.0 requests and responses

// JSON-RPC version
const Version = "2.0"

type MethodType string

// Request represents a JSON-RPC 2.0 request or notification
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id,omitempty"`
	Method  MethodType      `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC 2.0 response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject represents a JSON-RPC 2.0 error object
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *ErrorObject) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewRequest creates a JSON-RPC request message
func NewRequest(id string, method MethodType, params any) (*Request, error) {
	var p json.RawMessage
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		p = raw
	}
	return &Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  p,
	}, nil
}

// DecodeResult unmarshals a response result into out, surfacing the error
// object when the call failed.
func DecodeResult(rsp *Response, out any) error {
	if rsp == nil {
		return errors.New("jsonrpc: nil response")
	}
	if rsp.Error != nil {
		return rsp.Error
	}
	if out == nil {
		return nil
	}
	if len(rsp.Result) == 0 {
		return errors.New("jsonrpc: empty result")
	}
	return json.Unmarshal(rsp.Result, out)
}

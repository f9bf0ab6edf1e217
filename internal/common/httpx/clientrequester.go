package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/json-iterator/go"
)

// HTTPError carries a non-2xx response back to the caller.
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Status, e.Message)
}

// Fetch performs a JSON request against baseURL+path and decodes the JSON
// response into respObj when it is non-nil. reqObj may be nil for GET.
func Fetch(ctx context.Context, method, baseURL, path string, reqObj, respObj any, timeout time.Duration, overrideTransport ...http.RoundTripper) error {
	fullURL := strings.TrimRight(baseURL, "/") + path

	var body io.Reader
	if reqObj != nil {
		reqBody, err := json.Marshal(reqObj)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(reqBody)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqObj != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: timeout}
	if len(overrideTransport) > 0 {
		client.Transport = overrideTransport[0]
	}
	resp, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    string(msg),
		}
	}
	if respObj == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respObj); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

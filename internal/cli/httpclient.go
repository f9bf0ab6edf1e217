package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ServerError represents an error response from the server
type ServerError struct {
	Error string `json:"error"`
}

// HTTPError represents an error response from the server with a status code
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// HTTPClient represents a client for making HTTP requests to the market server
type HTTPClient struct {
	config     *Config
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client using the provided configuration
func NewHTTPClient(config *Config) *HTTPClient {
	return &HTTPClient{
		config:     config,
		httpClient: &http.Client{},
	}
}

// RequestOptions contains options for making HTTP requests
type RequestOptions struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Body        []byte
	ContentType string
}

// DoRequest makes an HTTP request with the given options
func (c *HTTPClient) DoRequest(opts RequestOptions) ([]byte, string, error) {
	u, err := url.Parse(c.config.GetServerURL())
	if err != nil {
		return nil, "", fmt.Errorf("invalid server URL: %v", err)
	}
	u.Path = path.Join(u.Path, opts.Path)

	q := u.Query()
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequest(opts.Method, u.String(), bytes.NewBuffer(opts.Body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %v", err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)

	// Send the stored token if it has not expired yet
	if c.config.CurrentToken != "" && c.config.TokenExpiry != "" {
		expiry, err := time.Parse(time.RFC3339, c.config.TokenExpiry)
		if err == nil && time.Now().Before(expiry) {
			req.Header.Set("Authorization", "Bearer "+c.config.CurrentToken)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode >= 400 {
		var serverErr ServerError
		if err := json.Unmarshal(body, &serverErr); err == nil && serverErr.Error != "" {
			return nil, "", &HTTPError{
				StatusCode: resp.StatusCode,
				Message:    serverErr.Error,
			}
		}
		return nil, "", &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return body, resp.Header.Get("Location"), nil
}

// GetResource retrieves a resource at the given path
func (c *HTTPClient) GetResource(resourcePath string, queryParams map[string]string) ([]byte, error) {
	opts := RequestOptions{
		Method:      http.MethodGet,
		Path:        strings.Trim(resourcePath, "/"),
		QueryParams: queryParams,
	}
	body, _, err := c.DoRequest(opts)
	return body, err
}

// PostResource posts JSON data to the given path and returns the body and Location header
func (c *HTTPClient) PostResource(resourcePath string, data []byte) ([]byte, string, error) {
	opts := RequestOptions{
		Method: http.MethodPost,
		Path:   strings.Trim(resourcePath, "/"),
		Body:   data,
	}
	return c.DoRequest(opts)
}

// UpdateResource updates an existing resource using the given JSON data
func (c *HTTPClient) UpdateResource(resourcePath string, data []byte) ([]byte, error) {
	opts := RequestOptions{
		Method: http.MethodPut,
		Path:   strings.Trim(resourcePath, "/"),
		Body:   data,
	}
	body, _, err := c.DoRequest(opts)
	return body, err
}

// DeleteResource deletes the resource at the given path
func (c *HTTPClient) DeleteResource(resourcePath string) error {
	opts := RequestOptions{
		Method: http.MethodDelete,
		Path:   strings.Trim(resourcePath, "/"),
	}
	_, _, err := c.DoRequest(opts)
	return err
}

// UploadContent posts a multipart form with the content file and its metadata.
// Returns the response body and the Location header pointing at the created
// content or the in-flight registration.
func (c *HTTPClient) UploadContent(filePath string, fields map[string]string) ([]byte, string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("unable to open %s: %w", filePath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}

	opts := RequestOptions{
		Method:      http.MethodPost,
		Path:        "contents",
		Body:        buf.Bytes(),
		ContentType: w.FormDataContentType(),
	}
	return c.DoRequest(opts)
}

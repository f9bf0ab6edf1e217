package storage

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	json "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/common/apperrors"
)

// PinClient publishes blobs through a remote pinning service. The service is
// idempotent on content: re-pinning identical bytes returns the same hash.
type PinClient struct {
	endpoint   string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

func NewPinClient(endpoint, apiKey, apiSecret string) *PinClient {
	return &PinClient{
		endpoint:  endpoint,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type pinResponse struct {
	Hash string `json:"hash"`
}

func (c *PinClient) Put(ctx context.Context, name string, r io.Reader) (string, apperrors.Error) {
	// The blob is buffered once so transient failures can be retried
	// without re-reading the caller's stream.
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", ErrStorage.Err(err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", ErrStorage.Err(errors.Wrap(err, "reading content"))
	}
	if err := mw.Close(); err != nil {
		return "", ErrStorage.Err(err)
	}

	var hash string
	err = retry.Do(
		func() error {
			h, err := c.pin(ctx, body.Bytes(), mw.FormDataContentType())
			if err != nil {
				return err
			}
			hash = h
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Uint("attempt", n+1).Err(err).Msg("pin failed, retrying")
		}),
	)
	if err != nil {
		return "", ErrStorageUnavailable.Err(err)
	}
	return hash, nil
}

func (c *PinClient) pin(ctx context.Context, body []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pin_api_key", c.apiKey)
	req.Header.Set("pin_secret_api_key", c.apiSecret)

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "pin request")
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(rsp.Body, 1024))
		return "", errors.Errorf("pin service returned %d: %s", rsp.StatusCode, msg)
	}

	var pr pinResponse
	if err := json.NewDecoder(rsp.Body).Decode(&pr); err != nil {
		return "", errors.Wrap(err, "decoding pin response")
	}
	if pr.Hash == "" {
		return "", errors.New("pin service returned no hash")
	}
	return pr.Hash, nil
}

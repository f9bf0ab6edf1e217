package ledger

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/veristream/veristream-internal/internal/common/httpx"
)

// WalletBridgeSigner forwards signing requests to a wallet bridge: a
// companion service that relays the call to the wallet of the invocation's
// sender and holds the HTTP request open until the user confirms or
// declines. The bridge has no deadline of its own; ctx carries the
// orchestrator's.
type WalletBridgeSigner struct {
	baseURL string
}

func NewWalletBridgeSigner(baseURL string) *WalletBridgeSigner {
	return &WalletBridgeSigner{baseURL: baseURL}
}

type signRequest struct {
	Account    string     `json:"account"`
	Invocation Invocation `json:"invocation"`
}

type signResponse struct {
	Outcome   string   `json:"outcome"` // "signed" | "declined"
	Signature []string `json:"signature,omitempty"`
}

func (s *WalletBridgeSigner) Sign(ctx context.Context, inv Invocation) (Signature, error) {
	if inv.SenderAddress == "" {
		return nil, errors.New("invocation carries no sender address")
	}
	req := &signRequest{Account: inv.SenderAddress, Invocation: inv}
	var rsp signResponse
	// No client-side timeout: the deadline, if any, is on ctx.
	if err := httpx.Fetch(ctx, http.MethodPost, s.baseURL, "/v1/sign", req, &rsp, 0*time.Second); err != nil {
		return nil, err
	}
	if rsp.Outcome != "signed" {
		return nil, ErrRejected
	}
	if len(rsp.Signature) == 0 {
		return nil, errors.New("wallet bridge returned an empty signature")
	}
	return Signature(rsp.Signature), nil
}

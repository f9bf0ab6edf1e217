package ledger

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	json "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/sjson"
	"github.com/veristream/veristream-internal/internal/common/jsonrpc"
	"github.com/veristream/veristream-internal/pkg/types"
)

const (
	methodAddInvokeTransaction jsonrpc.MethodType = "ledger_addInvokeTransaction"
	methodGetTransactionStatus jsonrpc.MethodType = "ledger_getTransactionStatus"

	entryPointRegisterContent = "register_content"
	entryPointIssueLicense    = "issue_license"
)

// GatewayClient talks JSON-RPC 2.0 to a ledger gateway. Submission is gated
// on the injected Signer and is never retried automatically: a transport
// fault after signing leaves the outcome unknown and is the caller's
// ambiguity to resolve. Status polls are idempotent and retried on
// transport faults.
type GatewayClient struct {
	baseURL         string
	contractAddress string
	httpClient      *http.Client
	nextID          func() string
}

func NewGatewayClient(baseURL, contractAddress string) *GatewayClient {
	var seq atomic.Uint64
	return &GatewayClient{
		baseURL:         baseURL,
		contractAddress: contractAddress,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		nextID: func() string {
			return fmt.Sprintf("%d", seq.Add(1))
		},
	}
}

func (c *GatewayClient) SubmitRegistration(ctx context.Context, p RegistrationPayload, signer Signer) (types.TxHandle, error) {
	inv := Invocation{
		ContractAddress: c.contractAddress,
		EntryPoint:      entryPointRegisterContent,
		Calldata: []string{
			EncodeShortString(p.Title),
			EncodeShortString(p.StorageHash),
		},
		SenderAddress: p.Creator,
	}
	return c.submit(ctx, inv, signer)
}

func (c *GatewayClient) SubmitIssuance(ctx context.Context, p IssuancePayload, signer Signer) (types.TxHandle, error) {
	inv := Invocation{
		ContractAddress: c.contractAddress,
		EntryPoint:      entryPointIssueLicense,
		Calldata: []string{
			EncodeUint(uint64(p.ContentLedgerID)),
			EncodeUint(uint64(p.Duration)),
			EncodeUint(uint64(p.PriceMinor)),
		},
		SenderAddress: p.Buyer,
	}
	return c.submit(ctx, inv, signer)
}

// submit asks the wallet for a signature, then broadcasts. The signature
// step blocks on human confirmation; ctx carries the orchestrator's
// deadline.
func (c *GatewayClient) submit(ctx context.Context, inv Invocation, signer Signer) (types.TxHandle, error) {
	if inv.SenderAddress == "" {
		return "", fmt.Errorf("invocation carries no sender address")
	}
	sig, err := signer.Sign(ctx, inv)
	if err != nil {
		return "", err
	}

	params, err := buildInvokeParams(inv, sig)
	if err != nil {
		return "", err
	}
	var result struct {
		TransactionHash string `json:"transaction_hash"`
	}
	if err := c.call(ctx, methodAddInvokeTransaction, params, &result); err != nil {
		return "", err
	}
	if result.TransactionHash == "" {
		return "", fmt.Errorf("gateway returned no transaction hash")
	}
	return types.TxHandle(result.TransactionHash), nil
}

func (c *GatewayClient) PollStatus(ctx context.Context, handle types.TxHandle) (TxStatus, error) {
	params := map[string]string{"transaction_hash": string(handle)}
	var result struct {
		Status string          `json:"status"`
		Events json.RawMessage `json:"events"`
	}
	err := retry.Do(
		func() error {
			return c.call(ctx, methodGetTransactionStatus, params, &result)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return TxStatus{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch result.Status {
	case "ACCEPTED_ON_L2", "ACCEPTED_ON_L1", "CONFIRMED":
		var data []byte
		if len(result.Events) > 0 {
			data, _ = sjson.SetRawBytes([]byte(`{}`), "events", result.Events)
		}
		return TxStatus{State: TxConfirmed, EventData: data}, nil
	case "REVERTED", "REJECTED":
		return TxStatus{State: TxReverted}, nil
	default:
		return TxStatus{State: TxPending}, nil
	}
}

func buildInvokeParams(inv Invocation, sig Signature) (json.RawMessage, error) {
	raw, err := json.Marshal(inv)
	if err != nil {
		return nil, err
	}
	out, err := sjson.SetRawBytes([]byte(`{}`), "invocation", raw)
	if err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "signature", []string(sig)); err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "sender_address", inv.SenderAddress); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GatewayClient) call(ctx context.Context, method jsonrpc.MethodType, params any, out any) error {
	req, err := jsonrpc.NewRequest(c.nextID(), method, params)
	if err != nil {
		return err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpRsp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpRsp.Body.Close()
	if httpRsp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d", httpRsp.StatusCode)
	}

	var rsp jsonrpc.Response
	if err := json.NewDecoder(httpRsp.Body).Decode(&rsp); err != nil {
		return err
	}
	if err := jsonrpc.DecodeResult(&rsp, out); err != nil {
		log.Ctx(ctx).Debug().Str("method", string(method)).Err(err).Msg("gateway call failed")
		return err
	}
	return nil
}

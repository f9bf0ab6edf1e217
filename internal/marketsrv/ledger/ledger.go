// Package ledger defines the narrow contract the orchestrators have with the
// external distributed ledger: transaction submission gated on a
// human-confirmed wallet signature, and status polling. The production
// implementation talks JSON-RPC to a gateway; everything above it treats the
// ledger as an unreliable, slow, externally-confirmed collaborator.
package ledger

import (
	"context"
	"errors"

	"github.com/veristream/veristream-internal/pkg/types"
)

// TxState is the ledger-side view of a submitted transaction.
type TxState string

const (
	TxPending   TxState = "pending"
	TxConfirmed TxState = "confirmed"
	TxReverted  TxState = "reverted"
)

// TxStatus is the result of one status poll. EventData carries the raw JSON
// event payload emitted by the contract on confirmation; it is only set when
// State is TxConfirmed.
type TxStatus struct {
	State     TxState
	EventData []byte
}

// RegistrationPayload is the content registration call. Title and StorageHash
// are truncated to the ledger word size before encoding (see felt.go).
type RegistrationPayload struct {
	Title       string
	StorageHash string
	Creator     string
}

// IssuancePayload is the license issuance call. PriceMinor is the price in
// the ledger's minor units (see licensing.MinorUnits).
type IssuancePayload struct {
	ContentLedgerID types.LedgerID
	Duration        types.LicenseDuration
	PriceMinor      int64
	Buyer           string
}

// Invocation is a contract call awaiting a wallet signature. SenderAddress
// is the account whose wallet must confirm the call; it comes from the
// payload's authenticated creator or buyer and travels to the gateway as the
// broadcast sender, outside the invocation object.
type Invocation struct {
	ContractAddress string   `json:"contract_address"`
	EntryPoint      string   `json:"entry_point"`
	Calldata        []string `json:"calldata"`
	SenderAddress   string   `json:"-"`
}

// Signature is the felt pair produced by the wallet.
type Signature []string

// ErrRejected is returned by a Signer when the user explicitly declines to
// sign. It must never be conflated with a deadline expiry: a rejection is an
// authoritative negative while a timeout leaves the outcome unknown.
var ErrRejected = errors.New("wallet rejected the transaction")

// ErrUnavailable indicates the gateway could not be reached.
var ErrUnavailable = errors.New("ledger gateway unavailable")

// Signer is the injected asynchronous wallet capability. Sign routes the
// invocation to the wallet of inv.SenderAddress and blocks until the human
// confirms or declines, or until ctx is cancelled or its deadline passes.
// The orchestrator owns the deadline; the wallet side has none.
type Signer interface {
	Sign(ctx context.Context, inv Invocation) (Signature, error)
}

// Client submits transactions and polls their status.
type Client interface {
	SubmitRegistration(ctx context.Context, p RegistrationPayload, signer Signer) (types.TxHandle, error)
	SubmitIssuance(ctx context.Context, p IssuancePayload, signer Signer) (types.TxHandle, error)
	PollStatus(ctx context.Context, handle types.TxHandle) (TxStatus, error)
}

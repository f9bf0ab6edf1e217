package protocol

// State is the phase of a registration or issuance attempt. States are
// exhaustive and mutually exclusive; a driver moves an attempt through them
// in order and every attempt ends in exactly one terminal state.
type State string

const (
	StateUploading      State = "UPLOADING"
	StateCataloging     State = "CATALOGING"
	StateRecording      State = "RECORDING"
	StateAwaitingWallet State = "AWAITING_WALLET"
	StateConfirming     State = "CONFIRMING"
	StateActive         State = "ACTIVE"
	StateFailed         State = "FAILED"
	StateTimedOut       State = "TIMED_OUT"
	StateCancelled      State = "CANCELLED"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s {
	case StateActive, StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// Reason identifies which phase a terminal failure came from. Remediation
// differs per phase, so the reason is part of the external contract.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonStorage      Reason = "storage"
	ReasonCatalog      Reason = "catalog"
	ReasonUserRejected Reason = "user_rejected"
	ReasonLedgerRevert Reason = "ledger_revert"
)

// Progress bounds per state. The reported percentage is monotonically
// non-decreasing and never reaches 100 before terminal success.
const (
	ProgressUploading      = 10
	ProgressCataloging     = 40
	ProgressAwaitingWallet = 65
	ProgressConfirming     = 85
	ProgressConfirmingMax  = 99
	ProgressDone           = 100
)

// StatusMessage is the human-readable string shown while an attempt is in
// the given state.
func StatusMessage(s State) string {
	switch s {
	case StateUploading:
		return "uploading"
	case StateCataloging, StateRecording:
		return "saving to catalog"
	case StateAwaitingWallet:
		return "confirm in your wallet"
	case StateConfirming:
		return "processing blockchain transaction"
	case StateActive:
		return "done"
	case StateTimedOut:
		return "taking longer than expected, check your wallet"
	case StateCancelled:
		return "cancelled"
	default:
		return ""
	}
}

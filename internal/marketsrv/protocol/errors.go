package protocol

import (
	"net/http"

	"github.com/veristream/veristream-internal/internal/common/apperrors"
)

// The taxonomy separates failures by remediation. Storage and catalog
// failures abort with nothing committed and the whole operation can be
// retried from scratch. A wallet rejection is terminal for the attempt but
// the catalog record survives, so only the wallet phase needs re-invoking.
// Timeouts are ambiguous: the ledger side effect may still land, so they are
// never folded into rejection.
var (
	ErrWalletRejected  apperrors.Error = apperrors.New("wallet signing request was declined").SetStatusCode(http.StatusConflict)
	ErrWalletTimeout   apperrors.Error = apperrors.New("no wallet response before the deadline").SetStatusCode(http.StatusGatewayTimeout)
	ErrLedgerTimeout   apperrors.Error = apperrors.New("transaction not confirmed before the deadline").SetStatusCode(http.StatusGatewayTimeout)
	ErrLedgerReverted  apperrors.Error = apperrors.New("transaction was reverted by the ledger").SetStatusCode(http.StatusUnprocessableEntity)
	ErrCancelled       apperrors.Error = apperrors.New("operation was cancelled").SetStatusCode(http.StatusConflict)
	ErrAttemptNotFound apperrors.Error = apperrors.New("no such registration attempt").SetStatusCode(http.StatusNotFound)
	ErrNotCancellable  apperrors.Error = apperrors.New("attempt is not in a cancellable phase").SetStatusCode(http.StatusConflict)
	ErrNotResumable    apperrors.Error = apperrors.New("attempt is not in a resumable state").SetStatusCode(http.StatusConflict)
)

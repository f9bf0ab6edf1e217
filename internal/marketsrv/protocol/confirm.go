package protocol

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/common/apperrors"
	"github.com/veristream/veristream-internal/internal/marketsrv/ledger"
	"github.com/veristream/veristream-internal/pkg/types"
)

// finalPollTimeout bounds the last status check performed after the caller's
// context is already done.
const finalPollTimeout = 2 * time.Second

// AwaitConfirmation polls the ledger at a fixed interval until the
// transaction reaches a terminal status or ctx expires. A poll failure is
// not terminal; the ledger is expected to be slow and intermittently
// unavailable.
//
// When ctx ends while the transaction is still pending, one final poll runs
// on a fresh short-lived context. A confirmation observed there still counts
// as success: the transaction was broadcast and cannot be retracted, so a
// late result must not be discarded. Otherwise a cancelled ctx maps to
// ErrCancelled and an expired deadline to ErrLedgerTimeout.
func AwaitConfirmation(ctx context.Context, client ledger.Client, handle types.TxHandle, interval time.Duration, onTick func()) (ledger.TxStatus, apperrors.Error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return finalPoll(ctx, client, handle)
		case <-ticker.C:
		}
		if onTick != nil {
			onTick()
		}
		status, err := client.PollStatus(ctx, handle)
		if err != nil {
			if ctx.Err() != nil {
				return finalPoll(ctx, client, handle)
			}
			log.Ctx(ctx).Warn().Err(err).Str("tx_handle", string(handle)).Msg("status poll failed")
			continue
		}
		switch status.State {
		case ledger.TxConfirmed:
			return status, nil
		case ledger.TxReverted:
			return status, ErrLedgerReverted
		}
	}
}

func finalPoll(ctx context.Context, client ledger.Client, handle types.TxHandle) (ledger.TxStatus, apperrors.Error) {
	pollCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalPollTimeout)
	defer cancel()
	status, err := client.PollStatus(pollCtx, handle)
	if err == nil {
		switch status.State {
		case ledger.TxConfirmed:
			return status, nil
		case ledger.TxReverted:
			return status, ErrLedgerReverted
		}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ledger.TxStatus{}, ErrCancelled
	}
	return ledger.TxStatus{}, ErrLedgerTimeout
}

// Package registration drives a single content item from bytes on the
// creator's machine to a consistent active catalog record: publish to
// content-addressed storage, create the catalog record, then optionally
// anchor it on the ledger behind a human wallet confirmation.
//
// Upload and catalog creation are short synchronous calls. The ledger phases
// have unbounded latency, so they run in a driver goroutine and callers
// follow along through the attempt registry.
package registration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/common/apperrors"
	"github.com/veristream/veristream-internal/internal/marketsrv/catalog"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/internal/marketsrv/ledger"
	"github.com/veristream/veristream-internal/internal/marketsrv/protocol"
	"github.com/veristream/veristream-internal/internal/marketsrv/storage"
	"github.com/veristream/veristream-internal/pkg/types"
)

// Options bound the ledger phases. The wallet deadline starts when the
// signing request is issued; the confirm deadline when the transaction is
// broadcast.
type Options struct {
	AnchoringEnabled bool
	WalletTimeout    time.Duration
	ConfirmTimeout   time.Duration
	PollInterval     time.Duration
}

func (o *Options) setDefaults() {
	if o.WalletTimeout <= 0 {
		o.WalletTimeout = 3 * time.Minute
	}
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = 5 * time.Minute
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 3 * time.Second
	}
}

// Request is one content registration.
type Request struct {
	Title       string
	Description string
	ContentType string
	Creator     string
	Name        string
	Data        io.Reader
	Anchor      bool
}

// Orchestrator owns all in-flight registration attempts.
type Orchestrator struct {
	catalog  catalog.Store
	store    storage.Store
	ledger   ledger.Client
	signer   ledger.Signer
	registry *protocol.Registry
	opts     Options
}

func New(cat catalog.Store, store storage.Store, lc ledger.Client, signer ledger.Signer, opts Options) *Orchestrator {
	opts.setDefaults()
	return &Orchestrator{
		catalog:  cat,
		store:    store,
		ledger:   lc,
		signer:   signer,
		registry: protocol.NewRegistry(),
		opts:     opts,
	}
}

func contentKey(id types.ContentID) string {
	return fmt.Sprintf("content/%d", id)
}

// Register uploads the blob, creates the catalog record and, when anchoring
// is requested, starts the ledger phases in the background. The returned
// snapshot either reports a terminal outcome or carries the handle to follow
// the attempt with Status, Wait, Cancel and Resume.
//
// A storage or catalog failure aborts with nothing committed; the whole
// operation is safe to retry from scratch. A blob orphaned by a catalog
// failure needs no compensating delete: the store is content-addressed and a
// retry re-references the same hash.
func (o *Orchestrator) Register(ctx context.Context, req Request) (protocol.Snapshot, apperrors.Error) {
	a := o.registry.BeginDetached(protocol.StateUploading)
	a.Transition(protocol.StateUploading)

	hash, err := o.store.Put(ctx, req.Name, req.Data)
	if err != nil {
		a.Fail(protocol.ReasonStorage, err)
		return a.Snapshot(), err
	}
	a.BindStorageHash(hash)
	a.Transition(protocol.StateCataloging)

	content := &models.Content{
		Title:          req.Title,
		Description:    req.Description,
		ContentType:    req.ContentType,
		StorageHash:    hash,
		CreatorAddress: req.Creator,
		Info:           pgtype.JSONB{Status: pgtype.Null},
	}
	if err := o.catalog.CreateContent(ctx, content); err != nil {
		a.Fail(protocol.ReasonCatalog, err)
		return a.Snapshot(), err
	}
	a.BindContent(content.ContentID)
	o.registry.Claim(contentKey(content.ContentID), a)

	if !req.Anchor || !o.opts.AnchoringEnabled {
		if err := o.catalog.ActivateContent(ctx, content.ContentID); err != nil {
			a.Fail(protocol.ReasonCatalog, err)
			return a.Snapshot(), err
		}
		a.Succeed()
		return a.Snapshot(), nil
	}

	a.Transition(protocol.StateAwaitingWallet)
	go o.runAnchor(context.WithoutCancel(ctx), a, content)
	return a.Snapshot(), nil
}

// Anchor re-invokes the ledger phases for an existing catalog record. An
// already-active record reports prior success with zero additional writes;
// an attempt already in flight for the record is attached to, never raced.
func (o *Orchestrator) Anchor(ctx context.Context, id types.ContentID) (protocol.Snapshot, apperrors.Error) {
	content, err := o.catalog.GetContent(ctx, id)
	if err != nil {
		return protocol.Snapshot{}, err
	}
	if content.IsActive {
		return protocol.Snapshot{
			State:       protocol.StateActive,
			Progress:    protocol.ProgressDone,
			Message:     protocol.StatusMessage(protocol.StateActive),
			ContentID:   content.ContentID,
			LedgerID:    content.LedgerID,
			StorageHash: content.StorageHash,
		}, nil
	}

	a, attached := o.registry.Begin(contentKey(id), protocol.StateAwaitingWallet)
	if attached {
		return a.Snapshot(), nil
	}
	a.BindContent(content.ContentID)
	a.BindStorageHash(content.StorageHash)
	a.Transition(protocol.StateAwaitingWallet)
	go o.runAnchor(context.WithoutCancel(ctx), a, content)
	return a.Snapshot(), nil
}

// Status reports the current view of an attempt.
func (o *Orchestrator) Status(handle string) (protocol.Snapshot, apperrors.Error) {
	a, err := o.registry.Get(handle)
	if err != nil {
		return protocol.Snapshot{}, err
	}
	return a.Snapshot(), nil
}

// Wait blocks until the attempt terminates or ctx expires.
func (o *Orchestrator) Wait(ctx context.Context, handle string) (protocol.Snapshot, apperrors.Error) {
	a, err := o.registry.Get(handle)
	if err != nil {
		return protocol.Snapshot{}, err
	}
	return a.Wait(ctx)
}

// Cancel requests cooperative cancellation of an attempt. Only the two
// suspension phases are cancellable; a broadcast transaction is never
// retracted, it is either observed on the final poll or adopted later by
// the reconciliation sweep.
func (o *Orchestrator) Cancel(handle string) apperrors.Error {
	a, err := o.registry.Get(handle)
	if err != nil {
		return err
	}
	return a.RequestCancel()
}

// Resume retries the wallet phase of a timed-out attempt. The earlier
// upload and catalog steps are never repeated; the new attempt starts at
// AWAITING_WALLET against the same record and storage hash.
func (o *Orchestrator) Resume(ctx context.Context, handle string) (protocol.Snapshot, apperrors.Error) {
	a, err := o.registry.Get(handle)
	if err != nil {
		return protocol.Snapshot{}, err
	}
	snap := a.Snapshot()
	if snap.State != protocol.StateTimedOut || snap.ContentID == 0 {
		return protocol.Snapshot{}, protocol.ErrNotResumable
	}
	return o.Anchor(ctx, snap.ContentID)
}

// runAnchor is the driver for the two ledger phases. It owns every
// transition of the attempt from AWAITING_WALLET onward.
func (o *Orchestrator) runAnchor(ctx context.Context, a *protocol.Attempt, content *models.Content) {
	ctx, cancel := context.WithCancel(ctx)
	a.SetCancel(cancel)
	defer cancel()

	payload := ledger.RegistrationPayload{
		Title:       content.Title,
		StorageHash: content.StorageHash,
		Creator:     content.CreatorAddress,
	}
	walletCtx, walletCancel := context.WithTimeout(ctx, o.opts.WalletTimeout)
	txHandle, err := o.ledger.SubmitRegistration(walletCtx, payload, o.signer)
	walletCancel()
	if err != nil {
		o.failSubmit(ctx, walletCtx, a, err)
		return
	}
	a.BindTx(txHandle)
	if err := o.catalog.SetContentTxHandle(ctx, content.ContentID, txHandle); err != nil {
		// The sweep cannot adopt this transaction later, but the attempt
		// itself can still finish.
		log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(content.ContentID)).Msg("unable to persist tx handle")
	}
	a.Transition(protocol.StateConfirming)

	confirmCtx, confirmCancel := context.WithTimeout(ctx, o.opts.ConfirmTimeout)
	defer confirmCancel()
	status, perr := protocol.AwaitConfirmation(confirmCtx, o.ledger, txHandle, o.opts.PollInterval, a.Tick)
	if perr != nil {
		switch {
		case errors.Is(perr, protocol.ErrLedgerReverted):
			// Authoritative negative: the record stays cataloged but
			// unanchored, and the handle is cleared so the sweep skips it.
			if err := o.catalog.SetContentTxHandle(ctx, content.ContentID, ""); err != nil {
				log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(content.ContentID)).Msg("unable to clear tx handle")
			}
			a.Fail(protocol.ReasonLedgerRevert, perr)
		case errors.Is(perr, protocol.ErrCancelled):
			a.MarkCancelled()
		default:
			a.Timeout(protocol.ErrLedgerTimeout)
		}
		return
	}

	ledgerID, idErr := ledger.ParseAssignedID(status.EventData, ledger.EventContentRegistered)
	if idErr != nil {
		log.Ctx(ctx).Error().Err(idErr).Str("tx_handle", string(txHandle)).Msg("confirmed transaction with unusable event data")
		a.Fail(protocol.ReasonLedgerRevert, protocol.ErrLedgerReverted.Err(idErr))
		return
	}
	if err := o.finishAnchor(ctx, content.ContentID, ledgerID); err != nil {
		a.Fail(protocol.ReasonCatalog, err)
		return
	}
	a.BindLedgerID(ledgerID)
	a.Succeed()
}

// finishAnchor applies the success path: attach the ledger id with
// compare-and-set semantics, activate the record and drop the now-settled
// transaction handle. The reconciliation sweep runs the same sequence when
// it adopts a late confirmation.
func (o *Orchestrator) finishAnchor(ctx context.Context, id types.ContentID, ledgerID types.LedgerID) apperrors.Error {
	if err := o.catalog.SetContentLedgerID(ctx, id, ledgerID); err != nil {
		return err
	}
	if err := o.catalog.ActivateContent(ctx, id); err != nil {
		return err
	}
	if err := o.catalog.SetContentTxHandle(ctx, id, ""); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(id)).Msg("unable to clear tx handle")
	}
	return nil
}

// failSubmit classifies a wallet-phase failure. A decline and a deadline
// expiry are different outcomes: the decline is authoritative, the expiry
// leaves the result unknown.
func (o *Orchestrator) failSubmit(ctx, walletCtx context.Context, a *protocol.Attempt, err error) {
	switch {
	case errors.Is(err, ledger.ErrRejected):
		a.Fail(protocol.ReasonUserRejected, protocol.ErrWalletRejected)
	case errors.Is(walletCtx.Err(), context.DeadlineExceeded):
		a.Timeout(protocol.ErrWalletTimeout)
	case ctx.Err() != nil:
		a.MarkCancelled()
	default:
		log.Ctx(ctx).Error().Err(err).Msg("transaction submission failed")
		a.Timeout(protocol.ErrWalletTimeout.Err(err))
	}
}

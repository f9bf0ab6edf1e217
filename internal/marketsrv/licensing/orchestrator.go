// Package licensing issues time-bounded licenses against registered
// content. The shape is the registration protocol minus the storage step:
// record the license off-chain, then submit the issuance transaction behind
// a wallet confirmation and poll it to a terminal status.
package licensing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/common/apperrors"
	"github.com/veristream/veristream-internal/internal/marketsrv/catalog"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/internal/marketsrv/ledger"
	"github.com/veristream/veristream-internal/internal/marketsrv/protocol"
	"github.com/veristream/veristream-internal/pkg/types"
)

var (
	ErrInvalidDuration    apperrors.Error = apperrors.New("invalid license duration").SetStatusCode(http.StatusBadRequest)
	ErrContentNotActive   apperrors.Error = apperrors.New("content is not active").SetStatusCode(http.StatusConflict)
	ErrContentNotAnchored apperrors.Error = apperrors.New("content has no ledger anchor").SetStatusCode(http.StatusConflict)
)

// Options mirror the registration deadlines.
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

// Request is one license purchase.
type Request struct {
	ContentID types.ContentID
	Duration  types.LicenseDuration
	Price     string
	Buyer     string
}

// Orchestrator owns all in-flight issuance attempts.
type Orchestrator struct {
	catalog  catalog.Store
	ledger   ledger.Client
	signer   ledger.Signer
	registry *protocol.Registry
	opts     Options
}

func New(cat catalog.Store, lc ledger.Client, signer ledger.Signer, opts Options) *Orchestrator {
	opts.setDefaults()
	return &Orchestrator{
		catalog:  cat,
		ledger:   lc,
		signer:   signer,
		registry: protocol.NewRegistry(),
		opts:     opts,
	}
}

// Purchase records the license and, when anchoring is enabled, starts the
// ledger phases in the background. A RECORDING failure is terminal with no
// artifact; a wallet or ledger failure leaves the license row inactive as an
// audit trail of the attempted purchase, never deleted.
func (o *Orchestrator) Purchase(ctx context.Context, req Request) (protocol.Snapshot, apperrors.Error) {
	if !req.Duration.Valid() {
		return protocol.Snapshot{}, ErrInvalidDuration
	}
	priceMinor, err := MinorUnits(req.Price)
	if err != nil {
		return protocol.Snapshot{}, err
	}

	content, err := o.catalog.GetContent(ctx, req.ContentID)
	if err != nil {
		return protocol.Snapshot{}, err
	}
	if !content.IsActive {
		return protocol.Snapshot{}, ErrContentNotActive
	}
	if o.opts.AnchoringEnabled && content.LedgerID == 0 {
		return protocol.Snapshot{}, ErrContentNotAnchored
	}

	a := o.registry.BeginDetached(protocol.StateRecording)
	a.Transition(protocol.StateRecording)
	a.BindContent(req.ContentID)

	license := &models.License{
		ContentID:    req.ContentID,
		Duration:     req.Duration,
		Price:        req.Price,
		BuyerAddress: req.Buyer,
	}
	if err := o.catalog.CreateLicense(ctx, license); err != nil {
		a.Fail(protocol.ReasonCatalog, err)
		return a.Snapshot(), err
	}
	a.BindLicense(license.LicenseID)
	o.registry.Claim(fmt.Sprintf("license/%d", license.LicenseID), a)

	if !o.opts.AnchoringEnabled {
		if err := o.catalog.ActivateLicense(ctx, license.LicenseID); err != nil {
			a.Fail(protocol.ReasonCatalog, err)
			return a.Snapshot(), err
		}
		a.Succeed()
		return a.Snapshot(), nil
	}

	payload := ledger.IssuancePayload{
		ContentLedgerID: content.LedgerID,
		Duration:        req.Duration,
		PriceMinor:      priceMinor,
		Buyer:           req.Buyer,
	}
	a.Transition(protocol.StateAwaitingWallet)
	go o.runIssuance(context.WithoutCancel(ctx), a, license.LicenseID, payload)
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

// Cancel requests cooperative cancellation of an attempt.
func (o *Orchestrator) Cancel(handle string) apperrors.Error {
	a, err := o.registry.Get(handle)
	if err != nil {
		return err
	}
	return a.RequestCancel()
}

func (o *Orchestrator) runIssuance(ctx context.Context, a *protocol.Attempt, id types.LicenseID, payload ledger.IssuancePayload) {
	ctx, cancel := context.WithCancel(ctx)
	a.SetCancel(cancel)
	defer cancel()

	walletCtx, walletCancel := context.WithTimeout(ctx, o.opts.WalletTimeout)
	txHandle, err := o.ledger.SubmitIssuance(walletCtx, payload, o.signer)
	walletCancel()
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrRejected):
			a.Fail(protocol.ReasonUserRejected, protocol.ErrWalletRejected)
		case errors.Is(walletCtx.Err(), context.DeadlineExceeded):
			a.Timeout(protocol.ErrWalletTimeout)
		case ctx.Err() != nil:
			a.MarkCancelled()
		default:
			log.Ctx(ctx).Error().Err(err).Msg("issuance submission failed")
			a.Timeout(protocol.ErrWalletTimeout.Err(err))
		}
		return
	}
	a.BindTx(txHandle)
	if err := o.catalog.SetLicenseTxHandle(ctx, id, txHandle); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("license_id", int64(id)).Msg("unable to persist tx handle")
	}
	a.Transition(protocol.StateConfirming)

	confirmCtx, confirmCancel := context.WithTimeout(ctx, o.opts.ConfirmTimeout)
	defer confirmCancel()
	status, perr := protocol.AwaitConfirmation(confirmCtx, o.ledger, txHandle, o.opts.PollInterval, a.Tick)
	if perr != nil {
		switch {
		case errors.Is(perr, protocol.ErrLedgerReverted):
			if err := o.catalog.SetLicenseTxHandle(ctx, id, ""); err != nil {
				log.Ctx(ctx).Error().Err(err).Int64("license_id", int64(id)).Msg("unable to clear tx handle")
			}
			a.Fail(protocol.ReasonLedgerRevert, perr)
		case errors.Is(perr, protocol.ErrCancelled):
			a.MarkCancelled()
		default:
			a.Timeout(protocol.ErrLedgerTimeout)
		}
		return
	}

	ledgerID, idErr := ledger.ParseAssignedID(status.EventData, ledger.EventLicenseIssued)
	if idErr != nil {
		log.Ctx(ctx).Error().Err(idErr).Str("tx_handle", string(txHandle)).Msg("confirmed transaction with unusable event data")
		a.Fail(protocol.ReasonLedgerRevert, protocol.ErrLedgerReverted.Err(idErr))
		return
	}
	if err := o.finishIssuance(ctx, id, ledgerID); err != nil {
		a.Fail(protocol.ReasonCatalog, err)
		return
	}
	a.BindLedgerID(ledgerID)
	a.Succeed()
}

func (o *Orchestrator) finishIssuance(ctx context.Context, id types.LicenseID, ledgerID types.LedgerID) apperrors.Error {
	if err := o.catalog.SetLicenseLedgerID(ctx, id, ledgerID); err != nil {
		return err
	}
	if err := o.catalog.ActivateLicense(ctx, id); err != nil {
		return err
	}
	if err := o.catalog.SetLicenseTxHandle(ctx, id, ""); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("license_id", int64(id)).Msg("unable to clear tx handle")
	}
	return nil
}

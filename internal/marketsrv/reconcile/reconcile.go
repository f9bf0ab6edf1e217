// Package reconcile adopts ledger transactions that outlived their
// registration attempt. A caller can cancel or time out while a broadcast
// transaction is still pending; the persisted transaction handle lets a
// periodic sweep over inactive records pick up the eventual outcome and
// apply the same success path the orchestrator would have.
package reconcile

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/marketsrv/catalog"
	"github.com/veristream/veristream-internal/internal/marketsrv/ledger"
)

var (
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vs_reconcile_runs_total",
		Help: "Reconciliation sweeps executed",
	})
	sweepAdoptedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vs_reconcile_adopted_total",
		Help: "Late transaction outcomes adopted by the sweep",
	}, []string{"kind", "outcome"})
)

// batchSize caps how many pending records one sweep examines per kind.
const batchSize = 100

// Sweeper periodically scans inactive content and license records that
// still hold a transaction handle.
type Sweeper struct {
	catalog  catalog.Store
	ledger   ledger.Client
	interval time.Duration
	cancel   context.CancelFunc
}

func NewSweeper(cat catalog.Store, lc ledger.Client, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{catalog: cat, ledger: lc, interval: interval}
}

// Start launches the sweep loop. Stop or ctx cancellation ends it.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(ctx)
	log.Ctx(ctx).Info().Dur("interval", s.interval).Msg("reconciliation sweep started")
}

// Stop ends the sweep loop.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep over both record kinds.
func (s *Sweeper) RunOnce(ctx context.Context) {
	sweepRunsTotal.Inc()
	s.sweepContent(ctx)
	s.sweepLicenses(ctx)
}

func (s *Sweeper) sweepContent(ctx context.Context) {
	records, err := s.catalog.ListUnanchoredContent(ctx, batchSize)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to list unanchored content")
		return
	}
	for _, c := range records {
		if ctx.Err() != nil {
			return
		}
		status, perr := s.ledger.PollStatus(ctx, c.TxHandle)
		if perr != nil {
			log.Ctx(ctx).Warn().Err(perr).Str("tx_handle", string(c.TxHandle)).Msg("status poll failed")
			continue
		}
		switch status.State {
		case ledger.TxConfirmed:
			ledgerID, idErr := ledger.ParseAssignedID(status.EventData, ledger.EventContentRegistered)
			if idErr != nil {
				log.Ctx(ctx).Error().Err(idErr).Str("tx_handle", string(c.TxHandle)).Msg("confirmed transaction with unusable event data")
				continue
			}
			if err := s.catalog.SetContentLedgerID(ctx, c.ContentID, ledgerID); err != nil {
				log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(c.ContentID)).Msg("unable to adopt ledger id")
				continue
			}
			if err := s.catalog.ActivateContent(ctx, c.ContentID); err != nil {
				log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(c.ContentID)).Msg("unable to activate content")
				continue
			}
			if err := s.catalog.SetContentTxHandle(ctx, c.ContentID, ""); err != nil {
				log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(c.ContentID)).Msg("unable to clear tx handle")
			}
			sweepAdoptedTotal.WithLabelValues("content", "confirmed").Inc()
			log.Ctx(ctx).Info().Int64("content_id", int64(c.ContentID)).Int64("ledger_id", int64(ledgerID)).Msg("adopted late confirmation")
		case ledger.TxReverted:
			if err := s.catalog.SetContentTxHandle(ctx, c.ContentID, ""); err != nil {
				log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(c.ContentID)).Msg("unable to clear tx handle")
				continue
			}
			sweepAdoptedTotal.WithLabelValues("content", "reverted").Inc()
		}
		// Pending records are left for the next sweep.
	}
}

func (s *Sweeper) sweepLicenses(ctx context.Context) {
	records, err := s.catalog.ListUnanchoredLicenses(ctx, batchSize)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to list unanchored licenses")
		return
	}
	for _, l := range records {
		if ctx.Err() != nil {
			return
		}
		status, perr := s.ledger.PollStatus(ctx, l.TxHandle)
		if perr != nil {
			log.Ctx(ctx).Warn().Err(perr).Str("tx_handle", string(l.TxHandle)).Msg("status poll failed")
			continue
		}
		switch status.State {
		case ledger.TxConfirmed:
			ledgerID, idErr := ledger.ParseAssignedID(status.EventData, ledger.EventLicenseIssued)
			if idErr != nil {
				log.Ctx(ctx).Error().Err(idErr).Str("tx_handle", string(l.TxHandle)).Msg("confirmed transaction with unusable event data")
				continue
			}
			if err := s.catalog.SetLicenseLedgerID(ctx, l.LicenseID, ledgerID); err != nil {
				log.Ctx(ctx).Error().Err(err).Int64("license_id", int64(l.LicenseID)).Msg("unable to adopt ledger id")
				continue
			}
			if err := s.catalog.ActivateLicense(ctx, l.LicenseID); err != nil {
				log.Ctx(ctx).Error().Err(err).Int64("license_id", int64(l.LicenseID)).Msg("unable to activate license")
				continue
			}
			if err := s.catalog.SetLicenseTxHandle(ctx, l.LicenseID, ""); err != nil {
				log.Ctx(ctx).Error().Err(err).Int64("license_id", int64(l.LicenseID)).Msg("unable to clear tx handle")
			}
			sweepAdoptedTotal.WithLabelValues("license", "confirmed").Inc()
		case ledger.TxReverted:
			if err := s.catalog.SetLicenseTxHandle(ctx, l.LicenseID, ""); err != nil {
				log.Ctx(ctx).Error().Err(err).Int64("license_id", int64(l.LicenseID)).Msg("unable to clear tx handle")
				continue
			}
			sweepAdoptedTotal.WithLabelValues("license", "reverted").Inc()
		}
	}
}

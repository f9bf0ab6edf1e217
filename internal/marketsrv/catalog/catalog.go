// Package catalog exposes the marketplace catalog to long-lived callers.
// Request handlers hold a pooled connection in their context for the life of
// the request; orchestrator goroutines outlive the request that started
// them, so this adapter checks a connection out of the pool per call
// instead.
package catalog

import (
	"context"

	"github.com/veristream/veristream-internal/internal/common/apperrors"
	"github.com/veristream/veristream-internal/internal/marketsrv/db"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/dberror"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/pkg/types"
)

// Store is the catalog surface the orchestrators and the reconciliation
// sweep depend on.
type Store interface {
	CreateContent(ctx context.Context, content *models.Content) apperrors.Error
	GetContent(ctx context.Context, id types.ContentID) (*models.Content, apperrors.Error)
	SetContentTxHandle(ctx context.Context, id types.ContentID, handle types.TxHandle) apperrors.Error
	SetContentLedgerID(ctx context.Context, id types.ContentID, ledgerID types.LedgerID) apperrors.Error
	ActivateContent(ctx context.Context, id types.ContentID) apperrors.Error
	ListUnanchoredContent(ctx context.Context, limit int) ([]*models.Content, apperrors.Error)

	CreateLicense(ctx context.Context, license *models.License) apperrors.Error
	GetLicense(ctx context.Context, id types.LicenseID) (*models.License, apperrors.Error)
	SetLicenseTxHandle(ctx context.Context, id types.LicenseID, handle types.TxHandle) apperrors.Error
	SetLicenseLedgerID(ctx context.Context, id types.LicenseID, ledgerID types.LedgerID) apperrors.Error
	ActivateLicense(ctx context.Context, id types.LicenseID) apperrors.Error
	ListUnanchoredLicenses(ctx context.Context, limit int) ([]*models.License, apperrors.Error)
}

type dbStore struct{}

// New returns a Store backed by the shared connection pool.
func New() Store {
	return dbStore{}
}

func withConn(ctx context.Context, f func(ctx context.Context, m db.CatalogManager) apperrors.Error) apperrors.Error {
	ctx = db.ConnCtx(ctx)
	m := db.DB(ctx)
	if m == nil {
		return dberror.ErrDatabase.Msg("unable to get db connection")
	}
	defer m.Close(ctx)
	return f(ctx, m)
}

func (dbStore) CreateContent(ctx context.Context, content *models.Content) apperrors.Error {
	return withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		return m.CreateContent(ctx, content)
	})
}

func (dbStore) GetContent(ctx context.Context, id types.ContentID) (*models.Content, apperrors.Error) {
	var content *models.Content
	err := withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		var errDb apperrors.Error
		content, errDb = m.GetContent(ctx, id)
		return errDb
	})
	return content, err
}

func (dbStore) SetContentTxHandle(ctx context.Context, id types.ContentID, handle types.TxHandle) apperrors.Error {
	return withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		return m.SetContentTxHandle(ctx, id, handle)
	})
}

func (dbStore) SetContentLedgerID(ctx context.Context, id types.ContentID, ledgerID types.LedgerID) apperrors.Error {
	return withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		return m.SetContentLedgerID(ctx, id, ledgerID)
	})
}

func (dbStore) ActivateContent(ctx context.Context, id types.ContentID) apperrors.Error {
	return withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		return m.ActivateContent(ctx, id)
	})
}

func (dbStore) ListUnanchoredContent(ctx context.Context, limit int) ([]*models.Content, apperrors.Error) {
	var out []*models.Content
	err := withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		var errDb apperrors.Error
		out, errDb = m.ListUnanchoredContent(ctx, limit)
		return errDb
	})
	return out, err
}

func (dbStore) CreateLicense(ctx context.Context, license *models.License) apperrors.Error {
	return withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		return m.CreateLicense(ctx, license)
	})
}

func (dbStore) GetLicense(ctx context.Context, id types.LicenseID) (*models.License, apperrors.Error) {
	var license *models.License
	err := withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		var errDb apperrors.Error
		license, errDb = m.GetLicense(ctx, id)
		return errDb
	})
	return license, err
}

func (dbStore) SetLicenseTxHandle(ctx context.Context, id types.LicenseID, handle types.TxHandle) apperrors.Error {
	return withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		return m.SetLicenseTxHandle(ctx, id, handle)
	})
}

func (dbStore) SetLicenseLedgerID(ctx context.Context, id types.LicenseID, ledgerID types.LedgerID) apperrors.Error {
	return withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		return m.SetLicenseLedgerID(ctx, id, ledgerID)
	})
}

func (dbStore) ActivateLicense(ctx context.Context, id types.LicenseID) apperrors.Error {
	return withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		return m.ActivateLicense(ctx, id)
	})
}

func (dbStore) ListUnanchoredLicenses(ctx context.Context, limit int) ([]*models.License, apperrors.Error) {
	var out []*models.License
	err := withConn(ctx, func(ctx context.Context, m db.CatalogManager) apperrors.Error {
		var errDb apperrors.Error
		out, errDb = m.ListUnanchoredLicenses(ctx, limit)
		return errDb
	})
	return out, err
}

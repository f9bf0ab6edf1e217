package postgresql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/common/apperrors"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/dberror"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/pkg/types"
)

const licenseColumns = `
	license_id, content_id, duration, price, COALESCE(tx_handle, ''),
	COALESCE(ledger_id, 0), buyer_address, is_active, created_at, updated_at`

// CreateLicense inserts a new license record. Like content, a license starts
// inactive and is activated once issuance completes.
func (cm *catalogManager) CreateLicense(ctx context.Context, license *models.License) apperrors.Error {
	query := `
		INSERT INTO licenses (content_id, duration, price, buyer_address, is_active)
		VALUES ($1, $2, $3, $4, false)
		RETURNING license_id, created_at, updated_at;
	`
	row := cm.conn().QueryRowContext(ctx, query,
		license.ContentID, license.Duration, license.Price, license.BuyerAddress)
	if err := row.Scan(&license.LicenseID, &license.CreatedAt, &license.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return dberror.ErrNotFound.Msg("content not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(license.ContentID)).Msg("failed to insert license")
		return dberror.ErrDatabase.Err(err)
	}
	license.IsActive = false
	return nil
}

// GetLicense retrieves a license record by its catalog identity.
func (cm *catalogManager) GetLicense(ctx context.Context, id types.LicenseID) (*models.License, apperrors.Error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE license_id = $1;`
	license := &models.License{}
	row := cm.conn().QueryRowContext(ctx, query, id)
	if err := scanLicense(row, license); err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("license not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("license_id", int64(id)).Msg("failed to load license")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return license, nil
}

// ListLicensesByContent returns all licenses issued against a content
// record, newest first.
func (cm *catalogManager) ListLicensesByContent(ctx context.Context, id types.ContentID) ([]*models.License, apperrors.Error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE content_id = $1 ORDER BY created_at DESC;`
	rows, err := cm.conn().QueryContext(ctx, query, id)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(id)).Msg("failed to list licenses")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var out []*models.License
	for rows.Next() {
		license := &models.License{}
		if err := scanLicense(rows, license); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		out = append(out, license)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return out, nil
}

// ListLicensesByBuyer returns all licenses purchased by the given address.
func (cm *catalogManager) ListLicensesByBuyer(ctx context.Context, buyer string) ([]*models.License, apperrors.Error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE buyer_address = $1 ORDER BY created_at DESC;`
	rows, err := cm.conn().QueryContext(ctx, query, buyer)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("buyer", buyer).Msg("failed to list licenses")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var out []*models.License
	for rows.Next() {
		license := &models.License{}
		if err := scanLicense(rows, license); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		out = append(out, license)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return out, nil
}

// SetLicenseTxHandle records the handle of the submitted issuance
// transaction. An empty handle clears the column.
func (cm *catalogManager) SetLicenseTxHandle(ctx context.Context, id types.LicenseID, handle types.TxHandle) apperrors.Error {
	query := `UPDATE licenses SET tx_handle = NULLIF($2, ''), updated_at = now() WHERE license_id = $1 RETURNING license_id;`
	var updated types.LicenseID
	row := cm.conn().QueryRowContext(ctx, query, id, handle)
	if err := row.Scan(&updated); err != nil {
		if err == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("license not found")
		}
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// SetLicenseLedgerID attaches the ledger-assigned identifier with the same
// compare-and-set semantics as content anchoring.
func (cm *catalogManager) SetLicenseLedgerID(ctx context.Context, id types.LicenseID, ledgerID types.LedgerID) apperrors.Error {
	query := `
		UPDATE licenses SET ledger_id = $2, updated_at = now()
		WHERE license_id = $1 AND (ledger_id IS NULL OR ledger_id = $2)
		RETURNING license_id;
	`
	var updated types.LicenseID
	row := cm.conn().QueryRowContext(ctx, query, id, ledgerID)
	if err := row.Scan(&updated); err != nil {
		if err != sql.ErrNoRows {
			log.Ctx(ctx).Error().Err(err).Int64("license_id", int64(id)).Msg("failed to set ledger id")
			return dberror.ErrDatabase.Err(err)
		}
		if _, gerr := cm.GetLicense(ctx, id); gerr != nil {
			return gerr
		}
		return dberror.ErrConflictingLedgerID
	}
	return nil
}

// ActivateLicense marks the license valid for use.
func (cm *catalogManager) ActivateLicense(ctx context.Context, id types.LicenseID) apperrors.Error {
	return cm.setLicenseActive(ctx, id, true)
}

// DeactivateLicense revokes a license.
func (cm *catalogManager) DeactivateLicense(ctx context.Context, id types.LicenseID) apperrors.Error {
	return cm.setLicenseActive(ctx, id, false)
}

func (cm *catalogManager) setLicenseActive(ctx context.Context, id types.LicenseID, active bool) apperrors.Error {
	query := `UPDATE licenses SET is_active = $2, updated_at = now() WHERE license_id = $1 RETURNING license_id;`
	var updated types.LicenseID
	row := cm.conn().QueryRowContext(ctx, query, id, active)
	if err := row.Scan(&updated); err != nil {
		if err == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("license not found")
		}
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// CountActiveLicenses reports how many active licenses reference a content
// record.
func (cm *catalogManager) CountActiveLicenses(ctx context.Context, id types.ContentID) (int, apperrors.Error) {
	query := `SELECT count(*) FROM licenses WHERE content_id = $1 AND is_active = true;`
	var count int
	row := cm.conn().QueryRowContext(ctx, query, id)
	if err := row.Scan(&count); err != nil {
		return 0, dberror.ErrDatabase.Err(err)
	}
	return count, nil
}

// ListUnanchoredLicenses returns inactive licenses that still hold a
// transaction handle, for the reconciliation sweep.
func (cm *catalogManager) ListUnanchoredLicenses(ctx context.Context, limit int) ([]*models.License, apperrors.Error) {
	query := `SELECT ` + licenseColumns + `
		FROM licenses
		WHERE is_active = false AND tx_handle IS NOT NULL
		ORDER BY updated_at ASC
		LIMIT $1;`
	rows, err := cm.conn().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var out []*models.License
	for rows.Next() {
		license := &models.License{}
		if err := scanLicense(rows, license); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		out = append(out, license)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return out, nil
}

func scanLicense(row rowScanner, l *models.License) error {
	return row.Scan(
		&l.LicenseID, &l.ContentID, &l.Duration, &l.Price, &l.TxHandle,
		&l.LedgerID, &l.BuyerAddress, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
}

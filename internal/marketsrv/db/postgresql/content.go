package postgresql

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/common/apperrors"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/dberror"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/pkg/types"
)

const contentColumns = `
	content_id, COALESCE(ledger_id, 0), COALESCE(tx_handle, ''), title,
	COALESCE(description, ''), content_type, storage_hash, creator_address,
	is_active, info, created_at, updated_at`

// CreateContent inserts a new content record. The record starts inactive;
// the registration orchestrator flips it active only when the record is
// fully usable.
func (cm *catalogManager) CreateContent(ctx context.Context, content *models.Content) apperrors.Error {
	query := `
		INSERT INTO contents (title, description, content_type, storage_hash, creator_address, is_active, info)
		VALUES ($1, $2, $3, $4, $5, false, $6)
		RETURNING content_id, created_at, updated_at;
	`
	row := cm.conn().QueryRowContext(ctx, query,
		content.Title, content.Description, content.ContentType,
		content.StorageHash, content.CreatorAddress, content.Info)
	if err := row.Scan(&content.ContentID, &content.CreatedAt, &content.UpdatedAt); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("title", content.Title).Msg("failed to insert content")
		return dberror.ErrDatabase.Err(err)
	}
	content.IsActive = false
	return nil
}

// GetContent retrieves a content record by its catalog identity.
func (cm *catalogManager) GetContent(ctx context.Context, id types.ContentID) (*models.Content, apperrors.Error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE content_id = $1;`
	content := &models.Content{}
	row := cm.conn().QueryRowContext(ctx, query, id)
	if err := scanContent(row, content); err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("content not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(id)).Msg("failed to load content")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return content, nil
}

// ListContentByCreator returns all content owned by the given address,
// newest first.
func (cm *catalogManager) ListContentByCreator(ctx context.Context, creator string) ([]*models.Content, apperrors.Error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE creator_address = $1 ORDER BY created_at DESC;`
	rows, err := cm.conn().QueryContext(ctx, query, creator)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("creator", creator).Msg("failed to list content")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var out []*models.Content
	for rows.Next() {
		content := &models.Content{}
		if err := scanContent(rows, content); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		out = append(out, content)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return out, nil
}

// UpdateContent applies an owner-scoped partial update of the mutable
// metadata fields.
func (cm *catalogManager) UpdateContent(ctx context.Context, id types.ContentID, owner string, upd *models.ContentUpdate) apperrors.Error {
	query := `
		UPDATE contents SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			content_type = COALESCE($5, content_type),
			info = COALESCE($6, info),
			updated_at = now()
		WHERE content_id = $1 AND creator_address = $2
		RETURNING content_id;
	`
	var updated types.ContentID
	row := cm.conn().QueryRowContext(ctx, query, id, owner, upd.Title, upd.Description, upd.ContentType, upd.Info)
	if err := row.Scan(&updated); err != nil {
		if err == sql.ErrNoRows {
			return cm.notFoundOrNotOwner(ctx, id)
		}
		log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(id)).Msg("failed to update content")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// DeleteContent removes a content record. The delete is rejected while
// active licenses reference the record.
func (cm *catalogManager) DeleteContent(ctx context.Context, id types.ContentID, owner string) apperrors.Error {
	count, err := cm.CountActiveLicenses(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return dberror.ErrActiveLicenses
	}

	query := `DELETE FROM contents WHERE content_id = $1 AND creator_address = $2 RETURNING content_id;`
	var deleted types.ContentID
	row := cm.conn().QueryRowContext(ctx, query, id, owner)
	if errDb := row.Scan(&deleted); errDb != nil {
		if errDb == sql.ErrNoRows {
			return cm.notFoundOrNotOwner(ctx, id)
		}
		log.Ctx(ctx).Error().Err(errDb).Int64("content_id", int64(id)).Msg("failed to delete content")
		return dberror.ErrDatabase.Err(errDb)
	}
	return nil
}

// SetContentTxHandle records the handle of the submitted registration
// transaction so an abandoned attempt can be reconciled later.
func (cm *catalogManager) SetContentTxHandle(ctx context.Context, id types.ContentID, handle types.TxHandle) apperrors.Error {
	query := `UPDATE contents SET tx_handle = NULLIF($2, ''), updated_at = now() WHERE content_id = $1 RETURNING content_id;`
	var updated types.ContentID
	row := cm.conn().QueryRowContext(ctx, query, id, handle)
	if err := row.Scan(&updated); err != nil {
		if err == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("content not found")
		}
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// SetContentLedgerID attaches the ledger-assigned identifier. The write is a
// compare-and-set: setting the same value twice is a no-op, a different
// existing value is rejected and the record is left unchanged.
func (cm *catalogManager) SetContentLedgerID(ctx context.Context, id types.ContentID, ledgerID types.LedgerID) apperrors.Error {
	query := `
		UPDATE contents SET ledger_id = $2, updated_at = now()
		WHERE content_id = $1 AND (ledger_id IS NULL OR ledger_id = $2)
		RETURNING content_id;
	`
	var updated types.ContentID
	row := cm.conn().QueryRowContext(ctx, query, id, ledgerID)
	if err := row.Scan(&updated); err != nil {
		if err != sql.ErrNoRows {
			log.Ctx(ctx).Error().Err(err).Int64("content_id", int64(id)).Msg("failed to set ledger id")
			return dberror.ErrDatabase.Err(err)
		}
		// Distinguish a missing record from a conflicting anchor.
		if _, gerr := cm.GetContent(ctx, id); gerr != nil {
			return gerr
		}
		return dberror.ErrConflictingLedgerID
	}
	return nil
}

// ActivateContent marks the record fully usable.
func (cm *catalogManager) ActivateContent(ctx context.Context, id types.ContentID) apperrors.Error {
	query := `UPDATE contents SET is_active = true, updated_at = now() WHERE content_id = $1 RETURNING content_id;`
	var updated types.ContentID
	row := cm.conn().QueryRowContext(ctx, query, id)
	if err := row.Scan(&updated); err != nil {
		if err == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("content not found")
		}
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// ListUnanchoredContent returns inactive records that still hold a
// transaction handle. These are candidates for the reconciliation sweep.
func (cm *catalogManager) ListUnanchoredContent(ctx context.Context, limit int) ([]*models.Content, apperrors.Error) {
	query := `SELECT ` + contentColumns + `
		FROM contents
		WHERE is_active = false AND tx_handle IS NOT NULL
		ORDER BY updated_at ASC
		LIMIT $1;`
	rows, err := cm.conn().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var out []*models.Content
	for rows.Next() {
		content := &models.Content{}
		if err := scanContent(rows, content); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		out = append(out, content)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return out, nil
}

func (cm *catalogManager) notFoundOrNotOwner(ctx context.Context, id types.ContentID) apperrors.Error {
	if _, err := cm.GetContent(ctx, id); err != nil {
		return err
	}
	return dberror.ErrNotOwner
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner, c *models.Content) error {
	return row.Scan(
		&c.ContentID, &c.LedgerID, &c.TxHandle, &c.Title,
		&c.Description, &c.ContentType, &c.StorageHash, &c.CreatorAddress,
		&c.IsActive, &c.Info, &c.CreatedAt, &c.UpdatedAt,
	)
}

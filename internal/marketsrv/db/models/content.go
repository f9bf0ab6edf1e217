package models

import (
	"time"

	"github.com/jackc/pgtype"
	"github.com/veristream/veristream-internal/pkg/types"
)

/*
     Column      |          Type           | Collation | Nullable |      Default
-----------------+-------------------------+-----------+----------+--------------------
 content_id      | bigint                  |           | not null | nextval(...)
 ledger_id       | bigint                  |           |          |
 tx_handle       | character varying(128)  |           |          |
 title           | character varying(255)  |           | not null |
 description     | text                    |           |          |
 content_type    | character varying(32)   |           | not null |
 storage_hash    | character varying(128)  |           | not null |
 creator_address | character varying(128)  |           | not null |
 is_active       | boolean                 |           | not null | false
 info            | jsonb                   |           |          |
 created_at      | timestamptz             |           | not null | now()
 updated_at      | timestamptz             |           | not null | now()
*/

// Content model definition. ContentID is the off-chain identity; LedgerID is
// zero until the registration transaction confirms and is set at most once.
type Content struct {
	ContentID      types.ContentID `db:"content_id"`
	LedgerID       types.LedgerID  `db:"ledger_id"`
	TxHandle       types.TxHandle  `db:"tx_handle"`
	Title          string          `db:"title"`
	Description    string          `db:"description"`
	ContentType    string          `db:"content_type"`
	StorageHash    string          `db:"storage_hash"`
	CreatorAddress string          `db:"creator_address"`
	IsActive       bool            `db:"is_active"`
	Info           pgtype.JSONB    `db:"info"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// ContentUpdate carries the owner-mutable fields of a partial update. Nil
// fields are left untouched.
type ContentUpdate struct {
	Title       *string
	Description *string
	ContentType *string
	Info        *pgtype.JSONB
}

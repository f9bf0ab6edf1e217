package models

import (
	"time"

	"github.com/veristream/veristream-internal/pkg/types"
)

/*
   Column     |          Type          | Collation | Nullable |      Default
--------------+------------------------+-----------+----------+--------------------
 license_id   | bigint                 |           | not null | nextval(...)
 content_id   | bigint                 |           | not null | references contents
 duration     | smallint               |           | not null |
 price        | numeric(18,6)          |           | not null |
 tx_handle    | character varying(128) |           |          |
 ledger_id    | bigint                 |           |          |
 buyer_address| character varying(128) |           | not null |
 is_active    | boolean                |           | not null | false
 created_at   | timestamptz            |           | not null | now()
 updated_at   | timestamptz            |           | not null | now()
*/

// License model definition. Licenses are never physically deleted; revoke
// and expiry clear IsActive, keeping the audit trail of attempted and
// completed purchases.
type License struct {
	LicenseID    types.LicenseID       `db:"license_id"`
	ContentID    types.ContentID       `db:"content_id"`
	Duration     types.LicenseDuration `db:"duration"`
	Price        string                `db:"price"` // decimal string, e.g. "19.99"
	TxHandle     types.TxHandle        `db:"tx_handle"`
	LedgerID     types.LedgerID        `db:"ledger_id"`
	BuyerAddress string                `db:"buyer_address"`
	IsActive     bool                  `db:"is_active"`
	CreatedAt    time.Time             `db:"created_at"`
	UpdatedAt    time.Time             `db:"updated_at"`
}

package types

// ContentID is the catalog-assigned identity of a content record.
// It is the primary identity for all off-chain references.
type ContentID int64

// LicenseID is the catalog-assigned identity of a license record.
type LicenseID int64

// LedgerID is the identifier assigned by the ledger once a registration
// transaction confirms. Zero means not anchored.
type LedgerID int64

// TxHandle is the ledger-assigned identifier of a submitted transaction.
type TxHandle string

// LicenseDuration is the enumerated license term. The numeric values are the
// ledger-side enum indexes and must not be reordered.
type LicenseDuration int16

const (
	DurationShort  LicenseDuration = 0 // one month
	DurationMedium LicenseDuration = 1 // six months
	DurationLong   LicenseDuration = 2 // one year
)

func (d LicenseDuration) Valid() bool {
	return d >= DurationShort && d <= DurationLong
}

func (d LicenseDuration) String() string {
	switch d {
	case DurationShort:
		return "1 Month"
	case DurationMedium:
		return "6 Months"
	case DurationLong:
		return "1 Year"
	}
	return "Unknown"
}

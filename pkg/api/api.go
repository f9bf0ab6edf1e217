// Package api holds the request and response schemas shared by the server
// and the CLI.
package api

import (
	"time"

	"github.com/veristream/veristream-internal/pkg/types"
)

// ContentRsp is the external view of a catalog content record. LedgerID is
// zero while the record is unanchored.
type ContentRsp struct {
	ContentID   types.ContentID `json:"contentId"`
	LedgerID    types.LedgerID  `json:"ledgerId,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	ContentType string          `json:"contentType"`
	StorageHash string          `json:"storageHash"`
	Creator     string          `json:"creator"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ContentUpdateReq carries the owner-mutable fields. Nil fields are left
// untouched.
type ContentUpdateReq struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=4096"`
	ContentType *string `json:"contentType,omitempty" validate:"omitempty,min=1,max=128"`
}

// RegistrationRsp reports the state of a registration or issuance attempt.
// Handle is empty once the attempt is terminal and was reported inline.
type RegistrationRsp struct {
	Handle      string          `json:"handle,omitempty"`
	State       string          `json:"state"`
	Reason      string          `json:"reason,omitempty"`
	Progress    int             `json:"progress"`
	Message     string          `json:"message,omitempty"`
	ContentID   types.ContentID `json:"contentId,omitempty"`
	LicenseID   types.LicenseID `json:"licenseId,omitempty"`
	LedgerID    types.LedgerID  `json:"ledgerId,omitempty"`
	StorageHash string          `json:"storageHash,omitempty"`
}

// LicensePurchaseReq starts a license issuance. The buyer identity comes
// from the authenticated caller, never from the body.
type LicensePurchaseReq struct {
	ContentID types.ContentID       `json:"contentId" validate:"required,gt=0"`
	Duration  types.LicenseDuration `json:"duration" validate:"gte=0,lte=2"`
	Price     string                `json:"price" validate:"required"`
}

// LicenseRsp is the external view of a license record.
type LicenseRsp struct {
	LicenseID types.LicenseID       `json:"licenseId"`
	ContentID types.ContentID       `json:"contentId"`
	LedgerID  types.LedgerID        `json:"ledgerId,omitempty"`
	Duration  types.LicenseDuration `json:"duration"`
	Term      string                `json:"term"`
	Price     string                `json:"price"`
	Buyer     string                `json:"buyer"`
	IsActive  bool                  `json:"isActive"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// TokenReq requests an API token for a wallet address.
type TokenReq struct {
	Address string `json:"address" validate:"required,min=3,max=128"`
}

// TokenRsp carries the issued bearer token.
type TokenRsp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VersionRsp reports server and API versions.
type VersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	APIVersion    string `json:"apiVersion"`
}

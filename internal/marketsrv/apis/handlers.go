// Package apis exposes the marketplace over HTTP: content CRUD, the
// registration protocol endpoints and license purchase. The thin CRUD
// endpoints read and write the catalog directly; anything touching storage
// or the ledger goes through the orchestrators.
package apis

import (
	"github.com/go-playground/validator/v10"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/internal/marketsrv/licensing"
	"github.com/veristream/veristream-internal/internal/marketsrv/protocol"
	"github.com/veristream/veristream-internal/internal/marketsrv/registration"
	"github.com/veristream/veristream-internal/pkg/api"
)

var validate = validator.New()

// Handlers carries the orchestrators the routes depend on.
type Handlers struct {
	Registration *registration.Orchestrator
	Licensing    *licensing.Orchestrator
}

func contentRsp(c *models.Content) *api.ContentRsp {
	return &api.ContentRsp{
		ContentID:   c.ContentID,
		LedgerID:    c.LedgerID,
		Title:       c.Title,
		Description: c.Description,
		ContentType: c.ContentType,
		StorageHash: c.StorageHash,
		Creator:     c.CreatorAddress,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func licenseRsp(l *models.License) *api.LicenseRsp {
	return &api.LicenseRsp{
		LicenseID: l.LicenseID,
		ContentID: l.ContentID,
		LedgerID:  l.LedgerID,
		Duration:  l.Duration,
		Term:      l.Duration.String(),
		Price:     l.Price,
		Buyer:     l.BuyerAddress,
		IsActive:  l.IsActive,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func attemptRsp(snap protocol.Snapshot) *api.RegistrationRsp {
	return &api.RegistrationRsp{
		Handle:      snap.Handle,
		State:       string(snap.State),
		Reason:      string(snap.Reason),
		Progress:    snap.Progress,
		Message:     snap.Message,
		ContentID:   snap.ContentID,
		LicenseID:   snap.LicenseID,
		LedgerID:    snap.LedgerID,
		StorageHash: snap.StorageHash,
	}
}

// Package testutil provides in-memory fakes for the orchestrators' external
// collaborators. Tests script the wallet and ledger behavior per scenario
// and count writes to verify idempotence.
package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/veristream/veristream-internal/internal/common/apperrors"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/dberror"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/internal/marketsrv/ledger"
	"github.com/veristream/veristream-internal/pkg/types"
)

// FakeStore is a scripted content-addressable store.
type FakeStore struct {
	mu       sync.Mutex
	Hash     string
	Err      apperrors.Error
	PutCount int
}

func (f *FakeStore) Put(ctx context.Context, name string, r io.Reader) (string, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PutCount++
	if f.Err != nil {
		return "", f.Err
	}
	_, _ = io.Copy(io.Discard, r)
	if f.Hash == "" {
		return "QmFake", nil
	}
	return f.Hash, nil
}

// FakeSigner is a scripted wallet. Decline rejects immediately; Block never
// answers, so the caller's deadline decides the outcome. LastSender records
// whose wallet the last invocation was routed to.
type FakeSigner struct {
	mu         sync.Mutex
	Decline    bool
	Block      bool
	SignCount  int
	LastSender string
}

func (f *FakeSigner) Sender() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LastSender
}

func (f *FakeSigner) Sign(ctx context.Context, inv ledger.Invocation) (ledger.Signature, error) {
	f.mu.Lock()
	f.SignCount++
	f.LastSender = inv.SenderAddress
	decline, block := f.Decline, f.Block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if decline {
		return nil, ledger.ErrRejected
	}
	return ledger.Signature{"0x1", "0x2"}, nil
}

// FakeLedger is a scripted ledger client. PollStatus consumes the scripted
// statuses in order and repeats the last one; with no script every poll
// reports pending.
type FakeLedger struct {
	mu        sync.Mutex
	statuses  []ledger.TxStatus
	SubmitErr error
	PollErr   error

	RegistrationCount int
	IssuanceCount     int
	PollCount         int
	LastRegistration  ledger.RegistrationPayload
	LastIssuance      ledger.IssuancePayload
	handleSeq         int
}

func (f *FakeLedger) SubmitRegistration(ctx context.Context, p ledger.RegistrationPayload, signer ledger.Signer) (types.TxHandle, error) {
	f.mu.Lock()
	f.RegistrationCount++
	f.LastRegistration = p
	submitErr := f.SubmitErr
	f.mu.Unlock()
	if submitErr != nil {
		return "", submitErr
	}
	inv := ledger.Invocation{
		EntryPoint: "register_content",
		Calldata: []string{
			ledger.EncodeShortString(ledger.TruncateShortString(p.Title)),
			ledger.EncodeShortString(ledger.TruncateShortString(p.StorageHash)),
		},
		SenderAddress: p.Creator,
	}
	if _, err := signer.Sign(ctx, inv); err != nil {
		return "", err
	}
	return f.nextHandle(), nil
}

func (f *FakeLedger) SubmitIssuance(ctx context.Context, p ledger.IssuancePayload, signer ledger.Signer) (types.TxHandle, error) {
	f.mu.Lock()
	f.IssuanceCount++
	f.LastIssuance = p
	submitErr := f.SubmitErr
	f.mu.Unlock()
	if submitErr != nil {
		return "", submitErr
	}
	inv := ledger.Invocation{
		EntryPoint: "issue_license",
		Calldata: []string{
			ledger.EncodeUint(uint64(p.ContentLedgerID)),
			ledger.EncodeUint(uint64(p.Duration)),
			ledger.EncodeUint(uint64(p.PriceMinor)),
		},
		SenderAddress: p.Buyer,
	}
	if _, err := signer.Sign(ctx, inv); err != nil {
		return "", err
	}
	return f.nextHandle(), nil
}

func (f *FakeLedger) PollStatus(ctx context.Context, handle types.TxHandle) (ledger.TxStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PollCount++
	if f.PollErr != nil {
		return ledger.TxStatus{}, f.PollErr
	}
	if len(f.statuses) == 0 {
		return ledger.TxStatus{State: ledger.TxPending}, nil
	}
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status, nil
}

func (f *FakeLedger) nextHandle() types.TxHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handleSeq++
	return types.TxHandle(fmt.Sprintf("0xtx%d", f.handleSeq))
}

// ScriptPending queues n pending polls ahead of whatever follows.
func (f *FakeLedger) ScriptPending(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.statuses = append(f.statuses, ledger.TxStatus{State: ledger.TxPending})
	}
}

// ScriptConfirmed queues a confirmation whose event data assigns the given
// ledger id.
func (f *FakeLedger) ScriptConfirmed(eventName string, id types.LedgerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, ledger.TxStatus{
		State:     ledger.TxConfirmed,
		EventData: EventData(eventName, id),
	})
}

// ScriptReverted queues a revert.
func (f *FakeLedger) ScriptReverted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, ledger.TxStatus{State: ledger.TxReverted})
}

// EventData builds a receipt event list as the gateway would return it.
func EventData(eventName string, id types.LedgerID) []byte {
	return []byte(fmt.Sprintf(`{"events":[{"keys":[%q],"data":[%q]}]}`,
		ledger.EventSelector(eventName), ledger.EncodeUint(uint64(id))))
}

// FakeCatalog is an in-memory catalog with the same compare-and-set
// semantics as the database layer. Writes counts mutating calls.
type FakeCatalog struct {
	mu          sync.Mutex
	contents    map[types.ContentID]*models.Content
	licenses    map[types.LicenseID]*models.License
	nextContent int64
	nextLicense int64

	Writes           int
	CreateContentErr apperrors.Error
	CreateLicenseErr apperrors.Error
}

func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		contents: make(map[types.ContentID]*models.Content),
		licenses: make(map[types.LicenseID]*models.License),
	}
}

func (f *FakeCatalog) CreateContent(ctx context.Context, content *models.Content) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateContentErr != nil {
		return f.CreateContentErr
	}
	f.Writes++
	f.nextContent++
	content.ContentID = types.ContentID(f.nextContent)
	content.IsActive = false
	clone := *content
	f.contents[content.ContentID] = &clone
	return nil
}

func (f *FakeCatalog) GetContent(ctx context.Context, id types.ContentID) (*models.Content, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[id]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("content not found")
	}
	clone := *c
	return &clone, nil
}

func (f *FakeCatalog) SetContentTxHandle(ctx context.Context, id types.ContentID, handle types.TxHandle) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[id]
	if !ok {
		return dberror.ErrNotFound.Msg("content not found")
	}
	f.Writes++
	c.TxHandle = handle
	return nil
}

func (f *FakeCatalog) SetContentLedgerID(ctx context.Context, id types.ContentID, ledgerID types.LedgerID) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[id]
	if !ok {
		return dberror.ErrNotFound.Msg("content not found")
	}
	if c.LedgerID != 0 && c.LedgerID != ledgerID {
		return dberror.ErrConflictingLedgerID
	}
	f.Writes++
	c.LedgerID = ledgerID
	return nil
}

func (f *FakeCatalog) ActivateContent(ctx context.Context, id types.ContentID) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[id]
	if !ok {
		return dberror.ErrNotFound.Msg("content not found")
	}
	f.Writes++
	c.IsActive = true
	return nil
}

func (f *FakeCatalog) ListUnanchoredContent(ctx context.Context, limit int) ([]*models.Content, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Content
	for _, c := range f.contents {
		if !c.IsActive && c.TxHandle != "" {
			clone := *c
			out = append(out, &clone)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *FakeCatalog) CreateLicense(ctx context.Context, license *models.License) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateLicenseErr != nil {
		return f.CreateLicenseErr
	}
	if _, ok := f.contents[license.ContentID]; !ok {
		return dberror.ErrNotFound.Msg("content not found")
	}
	f.Writes++
	f.nextLicense++
	license.LicenseID = types.LicenseID(f.nextLicense)
	license.IsActive = false
	clone := *license
	f.licenses[license.LicenseID] = &clone
	return nil
}

func (f *FakeCatalog) GetLicense(ctx context.Context, id types.LicenseID) (*models.License, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.licenses[id]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("license not found")
	}
	clone := *l
	return &clone, nil
}

func (f *FakeCatalog) SetLicenseTxHandle(ctx context.Context, id types.LicenseID, handle types.TxHandle) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.licenses[id]
	if !ok {
		return dberror.ErrNotFound.Msg("license not found")
	}
	f.Writes++
	l.TxHandle = handle
	return nil
}

func (f *FakeCatalog) SetLicenseLedgerID(ctx context.Context, id types.LicenseID, ledgerID types.LedgerID) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.licenses[id]
	if !ok {
		return dberror.ErrNotFound.Msg("license not found")
	}
	if l.LedgerID != 0 && l.LedgerID != ledgerID {
		return dberror.ErrConflictingLedgerID
	}
	f.Writes++
	l.LedgerID = ledgerID
	return nil
}

func (f *FakeCatalog) ActivateLicense(ctx context.Context, id types.LicenseID) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.licenses[id]
	if !ok {
		return dberror.ErrNotFound.Msg("license not found")
	}
	f.Writes++
	l.IsActive = true
	return nil
}

func (f *FakeCatalog) ListUnanchoredLicenses(ctx context.Context, limit int) ([]*models.License, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.License
	for _, l := range f.licenses {
		if !l.IsActive && l.TxHandle != "" {
			clone := *l
			out = append(out, &clone)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// The remaining methods complete the db.CatalogManager surface so the fake
// can be stashed in a request context for handler tests.

func (f *FakeCatalog) ListContentByCreator(ctx context.Context, creator string) ([]*models.Content, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Content{}
	for _, c := range f.contents {
		if c.CreatorAddress == creator {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *FakeCatalog) UpdateContent(ctx context.Context, id types.ContentID, owner string, upd *models.ContentUpdate) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[id]
	if !ok || c.CreatorAddress != owner {
		return dberror.ErrNotFound.Msg("content not found")
	}
	f.Writes++
	if upd.Title != nil {
		c.Title = *upd.Title
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.ContentType != nil {
		c.ContentType = *upd.ContentType
	}
	if upd.Info != nil {
		c.Info = *upd.Info
	}
	return nil
}

func (f *FakeCatalog) DeleteContent(ctx context.Context, id types.ContentID, owner string) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[id]
	if !ok || c.CreatorAddress != owner {
		return dberror.ErrNotFound.Msg("content not found")
	}
	for _, l := range f.licenses {
		if l.ContentID == id && l.IsActive {
			return dberror.ErrActiveLicenses
		}
	}
	f.Writes++
	delete(f.contents, id)
	for lid, l := range f.licenses {
		if l.ContentID == id {
			delete(f.licenses, lid)
		}
	}
	return nil
}

func (f *FakeCatalog) ListLicensesByContent(ctx context.Context, id types.ContentID) ([]*models.License, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.License{}
	for _, l := range f.licenses {
		if l.ContentID == id {
			clone := *l
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *FakeCatalog) ListLicensesByBuyer(ctx context.Context, buyer string) ([]*models.License, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.License{}
	for _, l := range f.licenses {
		if l.BuyerAddress == buyer {
			clone := *l
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *FakeCatalog) DeactivateLicense(ctx context.Context, id types.LicenseID) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.licenses[id]
	if !ok {
		return dberror.ErrNotFound.Msg("license not found")
	}
	f.Writes++
	l.IsActive = false
	return nil
}

func (f *FakeCatalog) CountActiveLicenses(ctx context.Context, id types.ContentID) (int, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.licenses {
		if l.ContentID == id && l.IsActive {
			n++
		}
	}
	return n, nil
}

func (f *FakeCatalog) Close(ctx context.Context) {}

// SeedContent inserts a content row directly, bypassing the lifecycle.
func (f *FakeCatalog) SeedContent(c *models.Content) types.ContentID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextContent++
	c.ContentID = types.ContentID(f.nextContent)
	clone := *c
	f.contents[c.ContentID] = &clone
	return c.ContentID
}

package licensing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/internal/marketsrv/ledger"
	"github.com/veristream/veristream-internal/internal/marketsrv/protocol"
	"github.com/veristream/veristream-internal/internal/marketsrv/testutil"
	"github.com/veristream/veristream-internal/pkg/types"
)

func fastOpts(anchoring bool) Options {
	return Options{
		AnchoringEnabled: anchoring,
		WalletTimeout:    time.Second,
		ConfirmTimeout:   time.Second,
		PollInterval:     time.Millisecond,
	}
}

func seedActiveContent(cat *testutil.FakeCatalog, ledgerID types.LedgerID) types.ContentID {
	return cat.SeedContent(&models.Content{
		Title:          "Sunset Timelapse",
		StorageHash:    "Qm123",
		CreatorAddress: "0xcafe",
		LedgerID:       ledgerID,
		IsActive:       true,
	})
}

func TestPurchaseConfirmed(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	contentID := seedActiveContent(cat, 9)
	lc := &testutil.FakeLedger{}
	lc.ScriptPending(1)
	lc.ScriptConfirmed(ledger.EventLicenseIssued, 77)
	signer := &testutil.FakeSigner{}
	o := New(cat, lc, signer, fastOpts(true))

	snap, err := o.Purchase(context.Background(), Request{
		ContentID: contentID,
		Duration:  types.DurationMedium,
		Price:     "19.99",
		Buyer:     "0xbeef",
	})
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	final, werr := o.Wait(ctx, snap.Handle)
	require.Nil(t, werr)
	assert.Equal(t, protocol.StateActive, final.State)
	assert.EqualValues(t, 77, final.LedgerID)

	l, gerr := cat.GetLicense(context.Background(), final.LicenseID)
	require.Nil(t, gerr)
	assert.True(t, l.IsActive)
	assert.EqualValues(t, 77, l.LedgerID)
	assert.Empty(t, l.TxHandle)

	// The issuance payload carries the minor-unit price for the content's
	// ledger identity.
	assert.EqualValues(t, 1999, lc.LastIssuance.PriceMinor)
	assert.EqualValues(t, 9, lc.LastIssuance.ContentLedgerID)
	assert.Equal(t, types.DurationMedium, lc.LastIssuance.Duration)
	assert.Equal(t, "0xbeef", signer.Sender())
}

func TestPurchaseRejectionKeepsAuditRow(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	contentID := seedActiveContent(cat, 9)
	o := New(cat, &testutil.FakeLedger{}, &testutil.FakeSigner{Decline: true}, fastOpts(true))

	snap, err := o.Purchase(context.Background(), Request{
		ContentID: contentID,
		Duration:  types.DurationShort,
		Price:     "5.00",
		Buyer:     "0xbeef",
	})
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	final, werr := o.Wait(ctx, snap.Handle)
	require.Nil(t, werr)
	assert.Equal(t, protocol.StateFailed, final.State)
	assert.Equal(t, protocol.ReasonUserRejected, final.Reason)

	// The attempted purchase stays on record, inactive.
	l, gerr := cat.GetLicense(context.Background(), final.LicenseID)
	require.Nil(t, gerr)
	assert.False(t, l.IsActive)
}

func TestPurchaseWithoutAnchoring(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	contentID := seedActiveContent(cat, 0)
	o := New(cat, &testutil.FakeLedger{}, &testutil.FakeSigner{}, fastOpts(false))

	snap, err := o.Purchase(context.Background(), Request{
		ContentID: contentID,
		Duration:  types.DurationLong,
		Price:     "12.00",
		Buyer:     "0xbeef",
	})
	require.Nil(t, err)
	assert.Equal(t, protocol.StateActive, snap.State)

	l, gerr := cat.GetLicense(context.Background(), snap.LicenseID)
	require.Nil(t, gerr)
	assert.True(t, l.IsActive)
	assert.EqualValues(t, 0, l.LedgerID)
}

func TestPurchaseValidation(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	contentID := seedActiveContent(cat, 9)
	o := New(cat, &testutil.FakeLedger{}, &testutil.FakeSigner{}, fastOpts(true))

	_, err := o.Purchase(context.Background(), Request{
		ContentID: contentID,
		Duration:  types.LicenseDuration(9),
		Price:     "1.00",
		Buyer:     "0xbeef",
	})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = o.Purchase(context.Background(), Request{
		ContentID: contentID,
		Duration:  types.DurationShort,
		Price:     "one dollar",
		Buyer:     "0xbeef",
	})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestPurchaseRequiresActiveAnchoredContent(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	inactive := cat.SeedContent(&models.Content{Title: "draft", StorageHash: "Qm9", CreatorAddress: "0xcafe"})
	unanchored := cat.SeedContent(&models.Content{Title: "plain", StorageHash: "Qm8", CreatorAddress: "0xcafe", IsActive: true})
	o := New(cat, &testutil.FakeLedger{}, &testutil.FakeSigner{}, fastOpts(true))

	req := Request{Duration: types.DurationShort, Price: "1.00", Buyer: "0xbeef"}

	req.ContentID = inactive
	_, err := o.Purchase(context.Background(), req)
	assert.ErrorIs(t, err, ErrContentNotActive)

	req.ContentID = unanchored
	_, err = o.Purchase(context.Background(), req)
	assert.ErrorIs(t, err, ErrContentNotAnchored)
}

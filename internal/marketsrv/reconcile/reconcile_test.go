package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/internal/marketsrv/ledger"
	"github.com/veristream/veristream-internal/internal/marketsrv/testutil"
)

func TestSweepAdoptsLateConfirmation(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	id := cat.SeedContent(&models.Content{
		Title:          "Sunset Timelapse",
		StorageHash:    "Qm123",
		CreatorAddress: "0xcafe",
		TxHandle:       "0xtx1",
	})
	lc := &testutil.FakeLedger{}
	lc.ScriptConfirmed(ledger.EventContentRegistered, 42)

	NewSweeper(cat, lc, 0).RunOnce(context.Background())

	c, err := cat.GetContent(context.Background(), id)
	require.Nil(t, err)
	assert.True(t, c.IsActive)
	assert.EqualValues(t, 42, c.LedgerID)
	assert.Empty(t, c.TxHandle)
}

func TestSweepClearsRevertedHandle(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	id := cat.SeedContent(&models.Content{
		Title:          "Sunset Timelapse",
		StorageHash:    "Qm123",
		CreatorAddress: "0xcafe",
		TxHandle:       "0xtx1",
	})
	lc := &testutil.FakeLedger{}
	lc.ScriptReverted()

	NewSweeper(cat, lc, 0).RunOnce(context.Background())

	c, err := cat.GetContent(context.Background(), id)
	require.Nil(t, err)
	assert.False(t, c.IsActive)
	assert.EqualValues(t, 0, c.LedgerID)
	assert.Empty(t, c.TxHandle)
}

func TestSweepLeavesPendingAlone(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	id := cat.SeedContent(&models.Content{
		Title:          "Sunset Timelapse",
		StorageHash:    "Qm123",
		CreatorAddress: "0xcafe",
		TxHandle:       "0xtx1",
	})
	lc := &testutil.FakeLedger{}

	NewSweeper(cat, lc, 0).RunOnce(context.Background())

	c, err := cat.GetContent(context.Background(), id)
	require.Nil(t, err)
	assert.False(t, c.IsActive)
	assert.Equal(t, "0xtx1", string(c.TxHandle))
}

func TestSweepAdoptsLicenseConfirmation(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	contentID := cat.SeedContent(&models.Content{
		Title:          "Sunset Timelapse",
		StorageHash:    "Qm123",
		CreatorAddress: "0xcafe",
		LedgerID:       9,
		IsActive:       true,
	})
	license := &models.License{ContentID: contentID, Price: "5.00", BuyerAddress: "0xbeef"}
	require.Nil(t, cat.CreateLicense(context.Background(), license))
	require.Nil(t, cat.SetLicenseTxHandle(context.Background(), license.LicenseID, "0xtx2"))

	lc := &testutil.FakeLedger{}
	lc.ScriptConfirmed(ledger.EventLicenseIssued, 77)

	NewSweeper(cat, lc, 0).RunOnce(context.Background())

	l, err := cat.GetLicense(context.Background(), license.LicenseID)
	require.Nil(t, err)
	assert.True(t, l.IsActive)
	assert.EqualValues(t, 77, l.LedgerID)
	assert.Empty(t, l.TxHandle)
}

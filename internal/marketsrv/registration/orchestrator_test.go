package registration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/internal/marketsrv/ledger"
	"github.com/veristream/veristream-internal/internal/marketsrv/protocol"
	"github.com/veristream/veristream-internal/internal/marketsrv/storage"
	"github.com/veristream/veristream-internal/internal/marketsrv/testutil"
)

func fastOpts(anchoring bool) Options {
	return Options{
		AnchoringEnabled: anchoring,
		WalletTimeout:    time.Second,
		ConfirmTimeout:   time.Second,
		PollInterval:     time.Millisecond,
	}
}

func testRequest() Request {
	return Request{
		Title:       "Sunset Timelapse",
		Description: "4k timelapse",
		ContentType: "video/mp4",
		Creator:     "0xcafe",
		Name:        "sunset.mp4",
		Data:        strings.NewReader("bytes"),
		Anchor:      true,
	}
}

func TestRegisterWithoutAnchoring(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	store := &testutil.FakeStore{Hash: "Qm123"}
	o := New(cat, store, &testutil.FakeLedger{}, &testutil.FakeSigner{}, fastOpts(false))

	req := testRequest()
	snap, err := o.Register(context.Background(), req)
	require.Nil(t, err)
	assert.Equal(t, protocol.StateActive, snap.State)
	assert.Equal(t, protocol.ProgressDone, snap.Progress)
	assert.Equal(t, "Qm123", snap.StorageHash)

	c, gerr := cat.GetContent(context.Background(), snap.ContentID)
	require.Nil(t, gerr)
	assert.True(t, c.IsActive)
	assert.EqualValues(t, 0, c.LedgerID)
	assert.Equal(t, "Qm123", c.StorageHash)
	assert.Equal(t, 1, store.PutCount)
}

func TestRegisterStorageFailure(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	store := &testutil.FakeStore{Err: storage.ErrStorageUnavailable}
	o := New(cat, store, &testutil.FakeLedger{}, &testutil.FakeSigner{}, fastOpts(false))

	snap, err := o.Register(context.Background(), testRequest())
	require.NotNil(t, err)
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
	assert.Equal(t, protocol.StateFailed, snap.State)
	assert.Equal(t, protocol.ReasonStorage, snap.Reason)
	// Nothing committed; the whole operation retries from scratch.
	assert.Equal(t, 0, cat.Writes)
}

func TestRegisterConfirmed(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	store := &testutil.FakeStore{Hash: "Qm123"}
	lc := &testutil.FakeLedger{}
	lc.ScriptPending(2)
	lc.ScriptConfirmed(ledger.EventContentRegistered, 42)
	signer := &testutil.FakeSigner{}
	o := New(cat, store, lc, signer, fastOpts(true))

	snap, err := o.Register(context.Background(), testRequest())
	require.Nil(t, err)
	require.NotEmpty(t, snap.Handle)
	assert.False(t, snap.State.Terminal())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	final, werr := o.Wait(ctx, snap.Handle)
	require.Nil(t, werr)
	assert.Equal(t, protocol.StateActive, final.State)
	assert.EqualValues(t, 42, final.LedgerID)
	assert.Equal(t, "0xcafe", signer.Sender())

	c, gerr := cat.GetContent(context.Background(), final.ContentID)
	require.Nil(t, gerr)
	assert.True(t, c.IsActive)
	assert.EqualValues(t, 42, c.LedgerID)
	assert.Empty(t, c.TxHandle)
}

func TestRegisterReverted(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	lc := &testutil.FakeLedger{}
	lc.ScriptReverted()
	o := New(cat, &testutil.FakeStore{Hash: "Qm123"}, lc, &testutil.FakeSigner{}, fastOpts(true))

	snap, err := o.Register(context.Background(), testRequest())
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	final, werr := o.Wait(ctx, snap.Handle)
	require.Nil(t, werr)
	assert.Equal(t, protocol.StateFailed, final.State)
	assert.Equal(t, protocol.ReasonLedgerRevert, final.Reason)
	assert.ErrorIs(t, final.Err, protocol.ErrLedgerReverted)

	// Cataloged but not anchored, and visibly so.
	c, gerr := cat.GetContent(context.Background(), final.ContentID)
	require.Nil(t, gerr)
	assert.False(t, c.IsActive)
	assert.EqualValues(t, 0, c.LedgerID)
	assert.Empty(t, c.TxHandle)
}

func TestWalletTimeoutVersusRejection(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		cat := testutil.NewFakeCatalog()
		opts := fastOpts(true)
		opts.WalletTimeout = 50 * time.Millisecond
		o := New(cat, &testutil.FakeStore{Hash: "Qm123"}, &testutil.FakeLedger{}, &testutil.FakeSigner{Block: true}, opts)

		snap, err := o.Register(context.Background(), testRequest())
		require.Nil(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		final, werr := o.Wait(ctx, snap.Handle)
		require.Nil(t, werr)
		assert.Equal(t, protocol.StateTimedOut, final.State)
		assert.ErrorIs(t, final.Err, protocol.ErrWalletTimeout)
	})

	t.Run("rejection", func(t *testing.T) {
		cat := testutil.NewFakeCatalog()
		o := New(cat, &testutil.FakeStore{Hash: "Qm123"}, &testutil.FakeLedger{}, &testutil.FakeSigner{Decline: true}, fastOpts(true))

		snap, err := o.Register(context.Background(), testRequest())
		require.Nil(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		final, werr := o.Wait(ctx, snap.Handle)
		require.Nil(t, werr)
		assert.Equal(t, protocol.StateFailed, final.State)
		assert.Equal(t, protocol.ReasonUserRejected, final.Reason)
		assert.ErrorIs(t, final.Err, protocol.ErrWalletRejected)
	})
}

func TestResumeAfterTimeoutSkipsUploadAndCatalog(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	store := &testutil.FakeStore{Hash: "Qm123"}
	lc := &testutil.FakeLedger{}
	signer := &testutil.FakeSigner{Block: true}
	opts := fastOpts(true)
	opts.WalletTimeout = 50 * time.Millisecond
	o := New(cat, store, lc, signer, opts)

	snap, err := o.Register(context.Background(), testRequest())
	require.Nil(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	timedOut, werr := o.Wait(ctx, snap.Handle)
	require.Nil(t, werr)
	require.Equal(t, protocol.StateTimedOut, timedOut.State)
	require.NotZero(t, timedOut.ContentID)

	// Wallet works now.
	signer.Block = false
	lc.ScriptConfirmed(ledger.EventContentRegistered, 42)

	resumed, rerr := o.Resume(context.Background(), snap.Handle)
	require.Nil(t, rerr)
	final, werr := o.Wait(ctx, resumed.Handle)
	require.Nil(t, werr)
	assert.Equal(t, protocol.StateActive, final.State)

	// Steps 1 and 2 never re-ran.
	assert.Equal(t, 1, store.PutCount)
	assert.Equal(t, timedOut.ContentID, final.ContentID)
}

func TestAnchorIdempotentOnActiveRecord(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	id := cat.SeedContent(&models.Content{
		Title:          "Sunset Timelapse",
		StorageHash:    "Qm123",
		CreatorAddress: "0xcafe",
		LedgerID:       42,
		IsActive:       true,
	})
	o := New(cat, &testutil.FakeStore{}, &testutil.FakeLedger{}, &testutil.FakeSigner{}, fastOpts(true))

	before := cat.Writes
	snap, err := o.Anchor(context.Background(), id)
	require.Nil(t, err)
	assert.Equal(t, protocol.StateActive, snap.State)
	assert.EqualValues(t, 42, snap.LedgerID)
	assert.Equal(t, before, cat.Writes)
}

func TestAnchorAttachesToInFlightAttempt(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	id := cat.SeedContent(&models.Content{
		Title:          "Sunset Timelapse",
		StorageHash:    "Qm123",
		CreatorAddress: "0xcafe",
	})
	o := New(cat, &testutil.FakeStore{}, &testutil.FakeLedger{}, &testutil.FakeSigner{Block: true}, fastOpts(true))

	first, err := o.Anchor(context.Background(), id)
	require.Nil(t, err)
	second, err := o.Anchor(context.Background(), id)
	require.Nil(t, err)
	assert.Equal(t, first.Handle, second.Handle)

	require.Eventually(t, func() bool {
		return o.Cancel(first.Handle) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestConflictingLedgerID(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	id := cat.SeedContent(&models.Content{
		Title:          "Sunset Timelapse",
		StorageHash:    "Qm123",
		CreatorAddress: "0xcafe",
		LedgerID:       41,
	})
	lc := &testutil.FakeLedger{}
	lc.ScriptConfirmed(ledger.EventContentRegistered, 42)
	o := New(cat, &testutil.FakeStore{}, lc, &testutil.FakeSigner{}, fastOpts(true))

	snap, err := o.Anchor(context.Background(), id)
	require.Nil(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	final, werr := o.Wait(ctx, snap.Handle)
	require.Nil(t, werr)
	assert.Equal(t, protocol.StateFailed, final.State)

	// The existing value is never silently overwritten.
	c, gerr := cat.GetContent(context.Background(), id)
	require.Nil(t, gerr)
	assert.EqualValues(t, 41, c.LedgerID)
	assert.False(t, c.IsActive)
}

func TestCancelDuringWalletWait(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	o := New(cat, &testutil.FakeStore{Hash: "Qm123"}, &testutil.FakeLedger{}, &testutil.FakeSigner{Block: true}, fastOpts(true))

	snap, err := o.Register(context.Background(), testRequest())
	require.Nil(t, err)

	require.Eventually(t, func() bool {
		return o.Cancel(snap.Handle) == nil
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	final, werr := o.Wait(ctx, snap.Handle)
	require.Nil(t, werr)
	assert.Equal(t, protocol.StateCancelled, final.State)

	c, gerr := cat.GetContent(context.Background(), final.ContentID)
	require.Nil(t, gerr)
	assert.False(t, c.IsActive)
}

func TestPersistedTxHandleSurvivesTimeout(t *testing.T) {
	cat := testutil.NewFakeCatalog()
	lc := &testutil.FakeLedger{}
	opts := fastOpts(true)
	opts.ConfirmTimeout = 30 * time.Millisecond
	o := New(cat, &testutil.FakeStore{Hash: "Qm123"}, lc, &testutil.FakeSigner{}, opts)

	snap, err := o.Register(context.Background(), testRequest())
	require.Nil(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	final, werr := o.Wait(ctx, snap.Handle)
	require.Nil(t, werr)
	require.Equal(t, protocol.StateTimedOut, final.State)
	assert.ErrorIs(t, final.Err, protocol.ErrLedgerTimeout)

	// The handle stays on the record so the reconciliation sweep can adopt
	// a late confirmation.
	c, gerr := cat.GetContent(context.Background(), final.ContentID)
	require.Nil(t, gerr)
	assert.Equal(t, final.TxHandle, c.TxHandle)
	assert.NotEmpty(t, c.TxHandle)
}

package protocol

import (
	"context"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/veristream/veristream-internal/internal/common/apperrors"
	"github.com/veristream/veristream-internal/pkg/types"
)

// Attempt is the mutable record of one in-flight registration or issuance
// run. Exactly one driver goroutine owns the transitions; any number of
// readers may take snapshots or wait for completion.
type Attempt struct {
	mu       sync.Mutex
	handle   string
	key      string
	state    State
	reason   Reason
	progress int
	message  string

	contentID   types.ContentID
	licenseID   types.LicenseID
	ledgerID    types.LedgerID
	storageHash string
	txHandle    types.TxHandle

	err        apperrors.Error
	done       chan struct{}
	cancel     context.CancelFunc
	onTerminal func()
}

func newAttempt(key string, initial State) *Attempt {
	handle, _ := gonanoid.New(12)
	return &Attempt{
		handle:   handle,
		key:      key,
		state:    initial,
		progress: 0,
		message:  StatusMessage(initial),
		done:     make(chan struct{}),
	}
}

// Handle is the caller-facing identifier used for status, cancel and resume.
func (a *Attempt) Handle() string { return a.handle }

// SetCancel installs the cancel function covering the attempt's suspension
// phases. Cancel is a no-op before this is called.
func (a *Attempt) SetCancel(cancel context.CancelFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancel = cancel
}

// Transition moves the attempt into a non-terminal state and resets the
// progress to the state's floor. Progress never moves backwards.
func (a *Attempt) Transition(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.Terminal() {
		return
	}
	a.state = s
	a.message = StatusMessage(s)
	floor := 0
	switch s {
	case StateUploading:
		floor = ProgressUploading
	case StateCataloging, StateRecording:
		floor = ProgressCataloging
	case StateAwaitingWallet:
		floor = ProgressAwaitingWallet
	case StateConfirming:
		floor = ProgressConfirming
	}
	if floor > a.progress {
		a.progress = floor
	}
}

// Tick nudges the progress toward the confirming ceiling. Called on each
// ledger poll so long waits still show movement.
func (a *Attempt) Tick() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateConfirming && a.progress < ProgressConfirmingMax {
		a.progress++
	}
}

func (a *Attempt) BindContent(id types.ContentID) { a.mu.Lock(); a.contentID = id; a.mu.Unlock() }
func (a *Attempt) BindLicense(id types.LicenseID) { a.mu.Lock(); a.licenseID = id; a.mu.Unlock() }
func (a *Attempt) BindLedgerID(id types.LedgerID) { a.mu.Lock(); a.ledgerID = id; a.mu.Unlock() }
func (a *Attempt) BindStorageHash(hash string)    { a.mu.Lock(); a.storageHash = hash; a.mu.Unlock() }
func (a *Attempt) BindTx(handle types.TxHandle)   { a.mu.Lock(); a.txHandle = handle; a.mu.Unlock() }

// Succeed switches into ACTIVE and releases waiters.
func (a *Attempt) Succeed() {
	a.terminate(StateActive, ReasonNone, nil)
}

// Fail terminates with FAILED and the phase the failure came from.
func (a *Attempt) Fail(reason Reason, err apperrors.Error) {
	a.terminate(StateFailed, reason, err)
}

// Timeout terminates with TIMED_OUT. The outcome is ambiguous: the ledger
// side effect may still land and be adopted later.
func (a *Attempt) Timeout(err apperrors.Error) {
	a.terminate(StateTimedOut, ReasonNone, err)
}

// MarkCancelled terminates with CANCELLED.
func (a *Attempt) MarkCancelled() {
	a.terminate(StateCancelled, ReasonNone, ErrCancelled)
}

func (a *Attempt) terminate(s State, reason Reason, err apperrors.Error) {
	a.mu.Lock()
	if a.state.Terminal() {
		a.mu.Unlock()
		return
	}
	a.state = s
	a.reason = reason
	a.err = err
	a.message = StatusMessage(s)
	if err != nil {
		a.message = err.Error()
	}
	if s == StateActive {
		a.progress = ProgressDone
	}
	onTerminal := a.onTerminal
	a.mu.Unlock()
	if onTerminal != nil {
		onTerminal()
	}
	close(a.done)
}

// RequestCancel triggers the attempt's cancel function if the attempt is in
// a cancellable phase. An already-broadcast transaction is not retracted;
// the driver observes the cancellation at its next suspension point.
func (a *Attempt) RequestCancel() apperrors.Error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case StateAwaitingWallet, StateConfirming:
		if a.cancel != nil {
			a.cancel()
			return nil
		}
	}
	return ErrNotCancellable
}

// Done is closed when the attempt reaches a terminal state.
func (a *Attempt) Done() <-chan struct{} { return a.done }

// Wait blocks until the attempt terminates or ctx expires.
func (a *Attempt) Wait(ctx context.Context) (Snapshot, apperrors.Error) {
	select {
	case <-a.done:
		return a.Snapshot(), nil
	case <-ctx.Done():
		return a.Snapshot(), ErrLedgerTimeout.Err(ctx.Err())
	}
}

// Snapshot is an immutable view of an attempt.
type Snapshot struct {
	Handle      string
	State       State
	Reason      Reason
	Progress    int
	Message     string
	ContentID   types.ContentID
	LicenseID   types.LicenseID
	LedgerID    types.LedgerID
	StorageHash string
	TxHandle    types.TxHandle
	Err         apperrors.Error
}

func (a *Attempt) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Handle:      a.handle,
		State:       a.state,
		Reason:      a.reason,
		Progress:    a.progress,
		Message:     a.message,
		ContentID:   a.contentID,
		LicenseID:   a.licenseID,
		LedgerID:    a.ledgerID,
		StorageHash: a.storageHash,
		TxHandle:    a.txHandle,
		Err:         a.err,
	}
}

// Registry tracks attempts by single-flight key and by handle. At most one
// non-terminal attempt exists per key; a second invocation attaches to the
// in-flight attempt instead of starting a parallel one.
type Registry struct {
	mu       sync.Mutex
	byKey    map[string]*Attempt
	byHandle map[string]*Attempt
}

func NewRegistry() *Registry {
	return &Registry{
		byKey:    make(map[string]*Attempt),
		byHandle: make(map[string]*Attempt),
	}
}

// Begin returns the in-flight attempt for key if one exists, otherwise it
// registers a fresh attempt. The second return value reports whether the
// caller attached to an existing run.
func (r *Registry) Begin(key string, initial State) (*Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byKey[key]; ok {
		return a, true
	}
	a := newAttempt(key, initial)
	a.onTerminal = func() {
		r.mu.Lock()
		if r.byKey[key] == a {
			delete(r.byKey, key)
		}
		r.mu.Unlock()
	}
	r.byKey[key] = a
	r.byHandle[a.handle] = a
	return a, false
}

// BeginDetached registers an attempt that is not yet bound to a
// single-flight key. Registration starts before a catalog identity exists;
// the driver claims the key once the record is created.
func (r *Registry) BeginDetached(initial State) *Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := newAttempt("", initial)
	r.byHandle[a.handle] = a
	return a
}

// Claim binds a detached attempt to its single-flight key. If another
// attempt already holds the key the claim fails and the caller must attach
// to that one instead.
func (r *Registry) Claim(key string, a *Attempt) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[key]; ok {
		return false
	}
	a.mu.Lock()
	a.key = key
	a.onTerminal = func() {
		r.mu.Lock()
		if r.byKey[key] == a {
			delete(r.byKey, key)
		}
		r.mu.Unlock()
	}
	a.mu.Unlock()
	r.byKey[key] = a
	return true
}

// Get looks up an attempt by its caller-facing handle. Terminal attempts
// remain queryable for the life of the process.
func (r *Registry) Get(handle string) (*Attempt, apperrors.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byHandle[handle]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return a, nil
}

package verifier

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker runs remote verifications in the background and keeps the status of the
// most recent dispatch. Answers for superseded dispatches are dropped.
type Tracker struct {
	logger  *zap.Logger
	remote  RemoteVerifier
	timeout time.Duration

	// notifyMu orders status changes with their notifications. It is taken before mu.
	notifyMu sync.Mutex
	mu       sync.Mutex
	seq      uint64
	status   Status
	onUpdate func(seq uint64, status Status)

	wg sync.WaitGroup
}

type TrackerConfig struct {
	Timeout time.Duration
	// OnUpdate is called with every accepted status change, in the order the changes
	// were accepted. It may read Status but must not call Dispatch or Reset.
	OnUpdate func(seq uint64, status Status)
}

func NewTracker(remote RemoteVerifier, cfg *TrackerConfig, logger *zap.Logger) *Tracker {
	t := &Tracker{
		logger: logger,
		remote: remote,
		status: StatusNotVerified,
	}
	if cfg != nil {
		t.timeout = cfg.Timeout
		t.onUpdate = cfg.OnUpdate
	}
	return t
}

// Dispatch starts a remote verification and returns its sequence number. The
// status becomes Pending immediately; the call never blocks on the remote.
func (t *Tracker) Dispatch(ctx context.Context, message, signature, publicKey string) uint64 {
	triple := Normalize(message, signature, publicKey)

	t.notifyMu.Lock()
	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.status = StatusPending
	t.mu.Unlock()
	t.notify(seq, StatusPending)
	t.notifyMu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		callCtx := ctx
		if t.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, t.timeout)
			defer cancel()
		}

		status := verifyRemoteTriple(callCtx, t.remote, triple)
		t.complete(seq, status)
	}()

	return seq
}

// Reset forgets the current check. In-flight answers become stale.
func (t *Tracker) Reset() {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.status = StatusNotVerified
	t.mu.Unlock()
	t.notify(seq, StatusNotVerified)
}

// Status returns the status of the latest dispatch
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Sequence returns the latest sequence number handed out
func (t *Tracker) Sequence() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Wait blocks until every dispatched verification has returned
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) complete(seq uint64, status Status) {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	if seq != t.seq {
		latest := t.seq
		t.mu.Unlock()
		t.logger.Sugar().Debugw("Dropping stale verification result",
			"sequence", seq,
			"latest", latest,
			"status", status.String(),
		)
		return
	}
	t.status = status
	t.mu.Unlock()

	t.logger.Sugar().Debugw("Remote verification finished", "sequence", seq, "status", status.String())
	t.notify(seq, status)
}

func (t *Tracker) notify(seq uint64, status Status) {
	if t.onUpdate != nil {
		t.onUpdate(seq, status)
	}
}

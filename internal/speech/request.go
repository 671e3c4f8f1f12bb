package speech

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/utter/internal/sanitize"
)

// RequestState tracks a request through its lifetime.
type RequestState int32

const (
	// RequestQueued means the request is waiting for the worker.
	RequestQueued RequestState = iota
	// RequestSpeaking means the worker is synthesizing or playing it.
	RequestSpeaking
	// RequestDone means playback completed.
	RequestDone
	// RequestFailed means synthesis or playback failed.
	RequestFailed
	// RequestCanceled means the request was canceled before completing.
	RequestCanceled
)

// String returns the string representation of the request state.
func (s RequestState) String() string {
	switch s {
	case RequestQueued:
		return "queued"
	case RequestSpeaking:
		return "speaking"
	case RequestDone:
		return "done"
	case RequestFailed:
		return "failed"
	case RequestCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Request is one utterance scheduled for playback. It is created by
// Dispatcher.Enqueue — never directly — so it always carries sanitized text.
// The worker owns it while speaking; callers observe it through State, Err,
// Done and Wait, and may Cancel it at any point.
type Request struct {
	id       uint64
	utt      sanitize.Utterance
	config   EngineConfig
	enqueued time.Time

	state atomic.Int32
	err   error
	errMu sync.Mutex

	done     chan struct{}
	doneOnce sync.Once

	// cancel aborts the in-flight phase: it cancels the synthesis context
	// and stops the player. Set by the worker while the request is active;
	// nil while queued and cleared again once the request finishes.
	cancelMu sync.Mutex
	cancelFn func()
	canceled atomic.Bool
}

func newRequest(id uint64, utt sanitize.Utterance, config EngineConfig) *Request {
	r := &Request{
		id:       id,
		utt:      utt,
		config:   config,
		enqueued: time.Now(),
		done:     make(chan struct{}),
	}
	r.state.Store(int32(RequestQueued))
	return r
}

// ID returns the request's sequence number. IDs increase in submission
// order.
func (r *Request) ID() uint64 { return r.id }

// Text returns the sanitized text to be spoken.
func (r *Request) Text() string { return r.utt.Text() }

// State returns the request's current state.
func (r *Request) State() RequestState {
	return RequestState(r.state.Load())
}

// Err returns the failure reason once the request has finished. It returns
// nil while the request is queued or speaking, and for completed requests.
func (r *Request) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.err
}

// Done returns a channel closed when the request finishes, fails, or is
// canceled.
func (r *Request) Done() <-chan struct{} { return r.done }

// Wait blocks until the request finishes or the context expires, returning
// the request's final error.
func (r *Request) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel requests best-effort cancellation. A queued request will never
// reach the engine; an in-flight request has its synthesis context canceled
// and playback stopped. Audio already handed to the device may finish its
// current buffer.
func (r *Request) Cancel() {
	if !r.canceled.CompareAndSwap(false, true) {
		return
	}
	r.cancelMu.Lock()
	cancel := r.cancelFn
	r.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// isCanceled reports whether Cancel has been called.
func (r *Request) isCanceled() bool { return r.canceled.Load() }

// arm installs the worker's cancel func for the in-flight phase. If the
// request was canceled while queued, arm cancels immediately and reports it.
func (r *Request) arm(cancel func()) (alreadyCanceled bool) {
	r.cancelMu.Lock()
	r.cancelFn = cancel
	r.cancelMu.Unlock()
	if r.canceled.Load() {
		cancel()
		return true
	}
	return false
}

// finish records the terminal state exactly once. The cancel func is cleared
// so a late Cancel cannot stop whatever plays next.
func (r *Request) finish(state RequestState, err error) {
	r.doneOnce.Do(func() {
		r.cancelMu.Lock()
		r.cancelFn = nil
		r.cancelMu.Unlock()
		r.errMu.Lock()
		r.err = err
		r.errMu.Unlock()
		r.state.Store(int32(state))
		close(r.done)
	})
}

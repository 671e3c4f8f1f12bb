package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/utter/internal/sanitize"
)

// DispatcherConfig holds configuration for the playback dispatcher.
type DispatcherConfig struct {
	// QueueSize bounds the number of pending requests. Enqueue fails with
	// ErrQueueFull rather than blocking when the queue is at capacity.
	QueueSize int

	// SynthesisTimeout bounds a single synthesis call.
	SynthesisTimeout time.Duration

	// DrainOnShutdown makes Shutdown finish queued requests instead of
	// discarding them.
	DrainOnShutdown bool
}

// DefaultDispatcherConfig returns a sensible default configuration.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:        16,
		SynthesisTimeout: 30 * time.Second,
	}
}

// Dispatcher schedules utterances onto a single worker goroutine that owns
// the engine and player exclusively. Callers only enqueue; they never touch
// engine state. Requests are processed strictly in submission order.
type Dispatcher struct {
	engine Engine
	player Player
	config DispatcherConfig

	mu      sync.Mutex
	machine *stateMachine
	engCfg  EngineConfig
	closed  bool
	current *Request

	queue  chan *Request
	nextID uint64

	// onResult is invoked after each request reaches a terminal state,
	// from the worker goroutine (or the canceling goroutine for requests
	// canceled while queued). err is nil on success.
	onResult func(req *Request, err error)

	workerCtx    context.Context
	workerCancel context.CancelFunc
	workerDone   chan struct{}
}

// New creates a Dispatcher around the given engine and player. Initialize
// must be called before Enqueue.
func New(engine Engine, player Player, config DispatcherConfig) *Dispatcher {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultDispatcherConfig().QueueSize
	}
	if config.SynthesisTimeout <= 0 {
		config.SynthesisTimeout = DefaultDispatcherConfig().SynthesisTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		engine:       engine,
		player:       player,
		config:       config,
		machine:      newStateMachine(),
		queue:        make(chan *Request, config.QueueSize),
		workerCtx:    ctx,
		workerCancel: cancel,
		workerDone:   make(chan struct{}),
	}
}

// OnResult registers a callback invoked after each request reaches a
// terminal state. The callback must not block. Set it before Initialize.
func (d *Dispatcher) OnResult(fn func(req *Request, err error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onResult = fn
}

// Initialize prepares the engine and starts the worker. Engine failures are
// reported synchronously and wrap ErrEngineInit.
func (d *Dispatcher) Initialize(config EngineConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.machine.transition(StateInitializing) {
		return fmt.Errorf("%w: cannot initialize from state %s", ErrInvalidTransition, d.machine.state())
	}

	if err := d.engine.Initialize(config); err != nil {
		d.machine.transition(StateError)
		return fmt.Errorf("%w: %v", ErrEngineInit, err)
	}
	if !d.engine.IsAvailable() {
		d.machine.transition(StateError)
		return fmt.Errorf("%w: %v", ErrEngineInit, ErrEngineNotAvailable)
	}

	d.engCfg = config
	d.machine.transition(StateReady)

	go d.worker()

	log.Debug("dispatcher initialized", "voice", config.Voice, "rate", config.Rate)
	return nil
}

// State returns the dispatcher's current state.
func (d *Dispatcher) State() StateType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.machine.state()
}

// Pending returns the number of queued requests.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Enqueue schedules an utterance for playback and returns immediately. The
// returned Request tracks progress and supports cancellation. Enqueue never
// blocks on synthesis; a full queue fails with ErrQueueFull.
func (d *Dispatcher) Enqueue(utt sanitize.Utterance) (*Request, error) {
	if !utt.Valid() {
		// Unreachable through the sanitizer, but guard the invariant anyway.
		return nil, sanitize.ErrInvalidInput
	}

	// The send stays under the mutex so Shutdown cannot close the queue
	// between the closed check and the send. It cannot block: the select
	// falls through when the queue is at capacity.
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	switch d.machine.state() {
	case StateReady, StateSpeaking:
	default:
		return nil, fmt.Errorf("%w (state %s)", ErrNotReady, d.machine.state())
	}

	d.nextID++
	req := newRequest(d.nextID, utt, d.engCfg)

	select {
	case d.queue <- req:
		log.Debug("request queued", "id", req.ID(), "chars", len(req.Text()))
		return req, nil
	default:
		d.nextID--
		return nil, ErrQueueFull
	}
}

// CancelAll cancels every queued request and interrupts the one in flight,
// whether it is still synthesizing or already playing.
func (d *Dispatcher) CancelAll() {
	d.mu.Lock()
	current := d.current
	d.mu.Unlock()

	for {
		select {
		case req, ok := <-d.queue:
			if !ok {
				// Shutdown already closed and drained the queue.
				return
			}
			req.Cancel()
			d.complete(req, RequestCanceled, ErrCanceled)
		default:
			if current != nil {
				// Fires the armed cancel func: synthesis context plus
				// player stop.
				current.Cancel()
			}
			d.player.Stop() //nolint:errcheck
			return
		}
	}
}

// Shutdown stops the dispatcher. Depending on configuration it drains or
// discards queued requests, then stops playback, releases the engine and
// waits for the worker to exit, bounded by ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	drain := d.config.DrainOnShutdown
	d.mu.Unlock()

	if !drain {
		d.CancelAll()
	}

	// No more Enqueues can succeed; closing the queue lets the worker finish
	// whatever remains and exit.
	close(d.queue)

	select {
	case <-d.workerDone:
	case <-ctx.Done():
		// Force the worker out of any in-flight synthesis or playback.
		d.workerCancel()
		d.player.Stop() //nolint:errcheck
		<-d.workerDone
	}
	d.workerCancel()

	// If the worker exited early on an engine failure, requests may remain
	// on the closed queue; complete them so their waiters are released.
	for req := range d.queue {
		req.Cancel()
		d.complete(req, RequestCanceled, ErrCanceled)
	}

	d.mu.Lock()
	d.machine.transition(StateStopping)
	d.machine.transition(StateIdle)
	d.mu.Unlock()

	var errs []error
	if err := d.player.Close(); err != nil {
		errs = append(errs, fmt.Errorf("player close: %w", err))
	}
	if err := d.engine.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("engine shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// worker is the sole goroutine that touches the engine and player. It
// processes requests in FIFO order; request failures are recorded and the
// worker moves on, unless the failure shows the engine itself is gone.
func (d *Dispatcher) worker() {
	defer close(d.workerDone)

	for req := range d.queue {
		if req.isCanceled() {
			d.complete(req, RequestCanceled, ErrCanceled)
			continue
		}

		d.mu.Lock()
		d.current = req
		d.machine.transition(StateSpeaking)
		d.mu.Unlock()

		d.speak(req)

		d.mu.Lock()
		d.current = nil
		d.mu.Unlock()

		if err := req.Err(); !IsRecoverable(err) {
			log.Error("engine unusable, stopping worker", "id", req.ID(), "err", err)
			d.setState(StateError)
			d.discardQueued()
			return
		}
		d.setState(StateReady)
	}
}

// discardQueued cancels whatever is sitting in the queue without blocking.
func (d *Dispatcher) discardQueued() {
	for {
		select {
		case req, ok := <-d.queue:
			if !ok {
				return
			}
			req.Cancel()
			d.complete(req, RequestCanceled, ErrCanceled)
		default:
			return
		}
	}
}

// speak synthesizes and plays one request, recording its terminal state.
// Failures are captured and reported, never propagated.
func (d *Dispatcher) speak(req *Request) {
	req.state.Store(int32(RequestSpeaking))

	ctx, cancel := context.WithTimeout(d.workerCtx, d.config.SynthesisTimeout)
	defer cancel()

	// The armed cancel covers both phases: the context aborts synthesis,
	// the player stop cuts playback short. Stop on an idle player is a
	// no-op, and finish disarms before the next request plays.
	if req.arm(func() {
		cancel()
		d.player.Stop() //nolint:errcheck
	}) {
		d.complete(req, RequestCanceled, ErrCanceled)
		return
	}

	start := time.Now()
	audio, err := d.engine.Synthesize(ctx, req.Text())
	if err != nil {
		if req.isCanceled() || errors.Is(err, context.Canceled) {
			d.complete(req, RequestCanceled, ErrCanceled)
			return
		}
		d.complete(req, RequestFailed, fmt.Errorf("%w: %w", ErrPlayback, err))
		return
	}
	log.Debug("synthesis complete",
		"id", req.ID(),
		"bytes", len(audio.Data),
		"took", time.Since(start))

	if req.isCanceled() {
		d.complete(req, RequestCanceled, ErrCanceled)
		return
	}

	if err := d.player.Play(audio); err != nil {
		if req.isCanceled() {
			d.complete(req, RequestCanceled, ErrCanceled)
			return
		}
		d.complete(req, RequestFailed, fmt.Errorf("%w: %w", ErrPlayback, err))
		return
	}

	if req.isCanceled() {
		d.complete(req, RequestCanceled, ErrCanceled)
		return
	}
	d.complete(req, RequestDone, nil)
}

func (d *Dispatcher) complete(req *Request, state RequestState, err error) {
	req.finish(state, err)

	switch state {
	case RequestFailed:
		log.Warn("request failed", "id", req.ID(), "err", err)
	case RequestCanceled:
		log.Debug("request canceled", "id", req.ID())
	default:
		log.Debug("request done", "id", req.ID())
	}

	d.mu.Lock()
	fn := d.onResult
	d.mu.Unlock()
	if fn != nil {
		fn(req, err)
	}
}

func (d *Dispatcher) setState(s StateType) {
	d.mu.Lock()
	d.machine.transition(s)
	d.mu.Unlock()
}

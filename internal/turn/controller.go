package turn

import (
	"log/slog"
	"sync"
	"time"
)

// defaultSilenceDelay is how long the user must stay silent before the turn
// passes to the bot.
const defaultSilenceDelay = 3 * time.Second

// defaultEventBuffer is the depth of the controller's event queue. Sized to
// absorb a burst of segment/transcript events without blocking dispatchers.
const defaultEventBuffer = 64

// Hooks are the controller's outbound side effects. All hooks are invoked
// on the controller's internal goroutine and must not block; long-running
// work (the generation request itself) belongs in a goroutine spawned by
// the hook.
type Hooks struct {
	// OnGenerate fires exactly once per entry into BotGenerating, carrying
	// the accumulated user transcript and the turn index assigned to the
	// bot's turn.
	OnGenerate func(input string, turnIndex int)

	// OnStateChange fires on every state transition, after the new state is
	// committed. Nil disables the notification.
	OnStateChange func(from, to State, c Context)
}

// Controller runs the turn-taking machine. Events arrive through the
// dispatch methods ([Controller.SegmentFinished] etc.), which are safe to
// call from any goroutine; a single internal goroutine applies them through
// [Transition] and owns the silence timer, so state mutations are
// serialised without locks.
type Controller struct {
	events       chan Event
	silenceDelay time.Duration
	hooks        Hooks

	// snapMu guards the published state snapshot only; the loop goroutine
	// is the sole writer.
	snapMu sync.RWMutex
	state  State
	mctx   Context

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// Option is a functional option for configuring a Controller.
type Option func(*Controller)

// WithSilenceDelay overrides the silence timeout. Default is 3 s.
func WithSilenceDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.silenceDelay = d
		}
	}
}

// NewController creates a Controller in the initial state (BotDone, turn
// index 1) and starts its event loop.
func NewController(hooks Hooks, opts ...Option) *Controller {
	c := &Controller{
		events:       make(chan Event, defaultEventBuffer),
		silenceDelay: defaultSilenceDelay,
		hooks:        hooks,
		state:        BotDone,
		mctx:         NewContext(),
		closed:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	go c.run()
	return c
}

// ─── Event dispatch ──────────────────────────────────────────────────────────

// SegmentFinished reports that an utterance segment was dispatched for
// transcription.
func (c *Controller) SegmentFinished() { c.dispatch(Event{Kind: SegmentFinished}) }

// TranscriptReceived reports a completed transcription round-trip with its
// text, which may be empty.
func (c *Controller) TranscriptReceived(text string) {
	c.dispatch(Event{Kind: TranscriptReceived, Text: text})
}

// TranscriptFailed reports an unrecoverable transcription failure for one
// segment. It is equivalent to receiving an empty transcript, keeping the
// pending-segment reconciliation moving instead of stalling the machine.
func (c *Controller) TranscriptFailed() {
	c.dispatch(Event{Kind: TranscriptReceived})
}

// TalkingEdge reports the segmenter's talking edge.
func (c *Controller) TalkingEdge() { c.dispatch(Event{Kind: TalkingEdge}) }

// SilenceEdge reports the segmenter's silence edge.
func (c *Controller) SilenceEdge() { c.dispatch(Event{Kind: SilenceEdge}) }

// GenerationFinished reports that the bot's response stream ended normally.
func (c *Controller) GenerationFinished() { c.dispatch(Event{Kind: GenerationFinished}) }

// GenerationFailed reports that the generation request failed; the machine
// returns to BotDone so the user can try again.
func (c *Controller) GenerationFailed() { c.dispatch(Event{Kind: GenerationFailed}) }

func (c *Controller) dispatch(ev Event) {
	select {
	case <-c.closed:
	case c.events <- ev:
	}
}

// ─── Introspection ───────────────────────────────────────────────────────────

// Snapshot returns the most recently committed state and context.
func (c *Controller) Snapshot() (State, Context) {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.state, c.mctx
}

// Close stops the event loop and disarms the silence timer. Events
// dispatched after Close are dropped. Close blocks until the loop exits and
// is safe to call multiple times.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
	<-c.done
}

// ─── Event loop ──────────────────────────────────────────────────────────────

// run applies events to the machine until Close. It owns the silence timer:
// exactly one timer is outstanding at a time, armed and disarmed only by
// transition effects, so a stale fire can never race a state change.
func (c *Controller) run() {
	defer close(c.done)

	timer := time.NewTimer(c.silenceDelay)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	disarm := func() {
		if armed && !timer.Stop() {
			<-timer.C
		}
		armed = false
	}

	for {
		select {
		case <-c.closed:
			disarm()
			return

		case <-timer.C:
			armed = false
			c.apply(Event{Kind: SilenceTimerFired}, timer, &armed, disarm)

		case ev := <-c.events:
			c.apply(ev, timer, &armed, disarm)
		}
	}
}

// apply runs one event through the machine, commits the result, and
// executes the requested effects.
func (c *Controller) apply(ev Event, timer *time.Timer, armed *bool, disarm func()) {
	from := c.state
	next, mctx, effects := Transition(c.state, c.mctx, ev)

	c.snapMu.Lock()
	c.state = next
	c.mctx = mctx
	c.snapMu.Unlock()

	if next != from {
		slog.Debug("turn transition",
			"from", from, "to", next, "event", ev.Kind,
			"pending", mctx.PendingSegments, "turn", mctx.TurnIndex,
		)
	}

	for _, eff := range effects {
		switch eff.Kind {
		case StartSilenceTimer:
			disarm()
			timer.Reset(c.silenceDelay)
			*armed = true
		case CancelSilenceTimer:
			disarm()
		case TriggerGeneration:
			if c.hooks.OnGenerate != nil {
				c.hooks.OnGenerate(eff.Input, mctx.TurnIndex)
			}
		}
	}

	if next != from && c.hooks.OnStateChange != nil {
		c.hooks.OnStateChange(from, next, mctx)
	}
}

// Package turn implements the turn-taking state machine that decides when
// the user has finished speaking and the bot may respond.
//
// The machine reconciles events that arrive from independent asynchronous
// sources — segment boundaries from the local segmenter, transcripts from
// the network transcription service, silence-timer fires, and generation
// completion — into a single coherent state. All transition logic lives in
// the pure [Transition] function; [Controller] wraps it in a single-goroutine
// event loop that owns the silence timer and dispatches side effects.
//
// The key reconciliation mechanism is the pending-segment counter: every
// dispatched segment increments it and every received transcript decrements
// it, so the machine only declares the user's transcript complete once all
// in-flight transcriptions have returned, regardless of arrival order.
package turn

import "fmt"

// State enumerates the turn-taking states. Exactly one is active at a time.
type State int

const (
	// BotDone means the bot has finished its turn and the user may speak.
	// This is the initial state: the greeting is already on screen.
	BotDone State = iota

	// BotGenerating means a generation request is in flight and the bot is
	// producing its response.
	BotGenerating

	// UserTalking means the user is actively speaking.
	UserTalking

	// UserSilent means the user has gone quiet; the silence timer is
	// running and will hand the turn to the bot if it fires.
	UserSilent

	// WaitingForTranscript means at least one dispatched segment has not
	// yet been transcribed.
	WaitingForTranscript
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case BotDone:
		return "bot-done"
	case BotGenerating:
		return "bot-generating"
	case UserTalking:
		return "user-talking"
	case UserSilent:
		return "user-silent"
	case WaitingForTranscript:
		return "waiting-for-transcript"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventKind enumerates the inputs the machine reacts to.
type EventKind int

const (
	// SegmentFinished: the segmenter emitted a finished utterance and it
	// was dispatched for transcription.
	SegmentFinished EventKind = iota

	// TranscriptReceived: a transcription round-trip completed. The event
	// carries the transcript text, which may be empty (including for a
	// failed transcription, which is treated as an empty transcript to
	// guarantee forward progress).
	TranscriptReceived

	// TalkingEdge: the segmenter's classification flipped to talking.
	TalkingEdge

	// SilenceEdge: the segmenter's classification flipped to silent.
	SilenceEdge

	// SilenceTimerFired: the silence timer elapsed without the user
	// resuming.
	SilenceTimerFired

	// GenerationFinished: the response stream for the current bot turn
	// ended.
	GenerationFinished

	// GenerationFailed: the generation request could not be established or
	// the stream failed; the bot turn is abandoned so the user can retry.
	GenerationFailed
)

// String returns the human-readable name of the event kind.
func (k EventKind) String() string {
	switch k {
	case SegmentFinished:
		return "segment-finished"
	case TranscriptReceived:
		return "transcript-received"
	case TalkingEdge:
		return "talking-edge"
	case SilenceEdge:
		return "silence-edge"
	case SilenceTimerFired:
		return "silence-timer-fired"
	case GenerationFinished:
		return "generation-finished"
	case GenerationFailed:
		return "generation-failed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one input to the machine. Text is only meaningful for
// [TranscriptReceived].
type Event struct {
	Kind EventKind
	Text string
}

// Context holds the counters attached to the machine state.
type Context struct {
	// PendingSegments counts segments dispatched for transcription whose
	// transcripts have not yet arrived. Never negative.
	PendingSegments int

	// Transcript is the ordered concatenation of transcript fragments for
	// the in-progress user turn. Reset to empty exactly on entry to
	// BotGenerating.
	Transcript string

	// TurnIndex counts completed turns, monotonically increasing. Starts
	// at 1: the greeting is turn 0.
	TurnIndex int
}

// EffectKind enumerates the side effects a transition may request. Effects
// are descriptions only; the [Controller] executes them.
type EffectKind int

const (
	// StartSilenceTimer arms the silence timer, replacing any previous one.
	StartSilenceTimer EffectKind = iota

	// CancelSilenceTimer disarms the silence timer.
	CancelSilenceTimer

	// TriggerGeneration starts a generation request. The effect carries the
	// accumulated transcript snapshot taken before the context was reset.
	TriggerGeneration
)

// Effect is one side effect requested by a transition.
type Effect struct {
	Kind EffectKind

	// Input is the user transcript for TriggerGeneration.
	Input string
}

// NewContext returns the initial machine context: no pending segments,
// empty transcript, turn index 1.
func NewContext() Context {
	return Context{TurnIndex: 1}
}

// Transition applies one event to the machine. It is a pure function:
// given the current state and context it returns the new state, the new
// context, and the side effects to execute. Event/state combinations not
// covered by the transition table leave the machine unchanged with no
// effects — duplicate or stale events are harmless by construction.
func Transition(s State, c Context, ev Event) (State, Context, []Effect) {
	switch s {
	case BotDone:
		if ev.Kind == SegmentFinished {
			c.PendingSegments = 1
			c.TurnIndex++
			return WaitingForTranscript, c, nil
		}

	case UserTalking:
		switch ev.Kind {
		case SilenceEdge:
			return UserSilent, c, []Effect{{Kind: StartSilenceTimer}}
		case SegmentFinished:
			c.PendingSegments++
			return WaitingForTranscript, c, nil
		}

	case UserSilent:
		switch ev.Kind {
		case TalkingEdge:
			return UserTalking, c, []Effect{{Kind: CancelSilenceTimer}}
		case SegmentFinished:
			c.PendingSegments++
			return WaitingForTranscript, c, []Effect{{Kind: CancelSilenceTimer}}
		case SilenceTimerFired:
			if c.Transcript == "" {
				// The user trailed off without saying anything transcribable
				// yet; wait another round instead of generating from nothing.
				return UserSilent, c, []Effect{{Kind: StartSilenceTimer}}
			}
			input := c.Transcript
			c.Transcript = ""
			c.TurnIndex++
			return BotGenerating, c, []Effect{{Kind: TriggerGeneration, Input: input}}
		}

	case WaitingForTranscript:
		switch ev.Kind {
		case SegmentFinished:
			c.PendingSegments++
			return WaitingForTranscript, c, nil
		case TranscriptReceived:
			if c.PendingSegments > 0 {
				c.PendingSegments--
			}
			c.Transcript += ev.Text
			if c.PendingSegments == 0 {
				return UserSilent, c, []Effect{{Kind: StartSilenceTimer}}
			}
			return WaitingForTranscript, c, nil
		}

	case BotGenerating:
		switch ev.Kind {
		case GenerationFinished, GenerationFailed:
			c.Transcript = ""
			return BotDone, c, nil
		}
	}

	return s, c, nil
}

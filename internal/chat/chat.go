// Package chat keeps the conversation transcript: the ordered list of user
// and bot turns accumulated over a session. The log is append-only; text
// streamed for an in-progress bot turn is held separately until the turn
// commits.
package chat

import "sync"

// Speaker identifies who produced a turn.
type Speaker int

const (
	User Speaker = iota
	Bot
)

func (s Speaker) String() string {
	if s == User {
		return "user"
	}
	return "bot"
}

// Turn is one committed conversation turn.
type Turn struct {
	Speaker Speaker
	Text    string
	Index   int
}

// DefaultGreeting is the bot turn pre-seeded into every new log.
const DefaultGreeting = "Hi! I'm listening. Talk to me using your microphone."

// Listener observes the log. Callbacks run on the goroutine that mutated
// the log and must not block or call back into it.
type Listener interface {
	// TurnCommitted is called once per appended turn.
	TurnCommitted(t Turn)
	// BotDelta is called for each text fragment of the in-progress bot
	// turn, before that turn commits.
	BotDelta(delta string)
}

// Log is a conversation transcript seeded with a bot greeting. It is safe
// for concurrent use.
type Log struct {
	mu       sync.Mutex
	turns    []Turn
	partial  []byte
	listener Listener
}

// Option configures a [Log].
type Option func(*Log)

// WithGreeting replaces [DefaultGreeting] for the seeded first turn. An
// empty greeting still seeds the turn, matching a bot that opens silently.
func WithGreeting(text string) Option {
	return func(l *Log) { l.turns[0].Text = text }
}

// WithListener registers the log's observer.
func WithListener(ln Listener) Option {
	return func(l *Log) { l.listener = ln }
}

func New(opts ...Option) *Log {
	l := &Log{turns: []Turn{{Speaker: Bot, Text: DefaultGreeting, Index: 0}}}
	for _, o := range opts {
		o(l)
	}
	return l
}

// AppendUser commits a user turn.
func (l *Log) AppendUser(text string) {
	l.append(User, text)
}

// BotDelta accumulates a streamed text fragment for the bot turn currently
// being generated.
func (l *Log) BotDelta(delta string) {
	l.mu.Lock()
	l.partial = append(l.partial, delta...)
	ln := l.listener
	l.mu.Unlock()
	if ln != nil {
		ln.BotDelta(delta)
	}
}

// CommitBot appends the accumulated bot turn and clears the partial buffer.
// A generation that produced no text commits nothing.
func (l *Log) CommitBot() {
	l.mu.Lock()
	text := string(l.partial)
	l.partial = nil
	l.mu.Unlock()
	if text == "" {
		return
	}
	l.append(Bot, text)
}

// DiscardPartial drops any accumulated bot text without committing, used
// when a generation fails mid-stream.
func (l *Log) DiscardPartial() {
	l.mu.Lock()
	l.partial = nil
	l.mu.Unlock()
}

// History returns the committed turn texts in order, excluding the seeded
// greeting. This is the shape the generation service expects.
func (l *Log) History() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.turns)-1)
	for _, t := range l.turns[1:] {
		out = append(out, t.Text)
	}
	return out
}

// Turns returns a snapshot of every committed turn, greeting included.
func (l *Log) Turns() []Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *Log) append(sp Speaker, text string) {
	l.mu.Lock()
	t := Turn{Speaker: sp, Text: text, Index: len(l.turns)}
	l.turns = append(l.turns, t)
	ln := l.listener
	l.mu.Unlock()
	if ln != nil {
		ln.TurnCommitted(t)
	}
}

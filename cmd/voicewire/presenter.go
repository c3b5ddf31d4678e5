package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/voicewire/voicewire/internal/app"
	"github.com/voicewire/voicewire/internal/chat"
	"github.com/voicewire/voicewire/internal/playback"
	"github.com/voicewire/voicewire/internal/turn"
)

// consolePresenter renders the conversation to a terminal. Bot text streams
// inline as it arrives; user turns print when the transcript lands. A short
// status line marks listening and speaking phases.
type consolePresenter struct {
	mu        sync.Mutex
	w         io.Writer
	streaming bool
}

var _ app.Presenter = (*consolePresenter)(nil)

func newConsolePresenter(w io.Writer) *consolePresenter {
	return &consolePresenter{w: w}
}

func (p *consolePresenter) BotDelta(delta string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.streaming {
		fmt.Fprint(p.w, "bot > ")
		p.streaming = true
	}
	fmt.Fprint(p.w, delta)
}

func (p *consolePresenter) TurnCommitted(t chat.Turn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch t.Speaker {
	case chat.User:
		fmt.Fprintf(p.w, "you > %s\n", t.Text)
	case chat.Bot:
		// The text already streamed via BotDelta; just end the line.
		if p.streaming {
			fmt.Fprintln(p.w)
			p.streaming = false
		} else {
			fmt.Fprintf(p.w, "bot > %s\n", t.Text)
		}
	}
}

func (p *consolePresenter) TurnStateChanged(s turn.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch s {
	case turn.BotGenerating:
		fmt.Fprintln(p.w, "· thinking")
	case turn.BotDone:
		fmt.Fprintln(p.w, "· listening")
	}
}

func (p *consolePresenter) PlaybackStateChanged(s playback.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s == playback.Playing {
		fmt.Fprintln(p.w, "· speaking")
	}
}

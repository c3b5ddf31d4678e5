package response

import (
	"errors"
	"io"
	"strings"
	"testing"
)

const sep = string(rune(RecordSeparator))

// chunkedReader delivers its chunks one per Read call, simulating network
// chunk boundaries that split records mid-payload.
type chunkedReader struct {
	chunks []string
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func collect(t *testing.T, d *Decoder) []Event {
	t.Helper()
	var events []Event
	for {
		ev, err := d.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		events = append(events, ev)
	}
}

func TestDecoder_InterleavedRecords(t *testing.T) {
	stream := `{"type":"text","value":"Hello"}` + sep +
		`{"type":"audio","value":"clip-1"}` + sep +
		`{"type":"text","value":", world"}` + sep

	events := collect(t, NewDecoder(strings.NewReader(stream)))
	want := []Event{
		{Type: EventText, Value: "Hello"},
		{Type: EventAudioClip, Value: "clip-1"},
		{Type: EventText, Value: ", world"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestDecoder_RecordSplitAcrossChunks(t *testing.T) {
	r := &chunkedReader{chunks: []string{
		`{"type":"te`,
		`xt","value":"hi"}` + sep,
	}}

	events := collect(t, NewDecoder(r))
	if len(events) != 1 {
		t.Fatalf("got %d events, want exactly 1: %+v", len(events), events)
	}
	if events[0] != (Event{Type: EventText, Value: "hi"}) {
		t.Fatalf("event = %+v", events[0])
	}
}

func TestDecoder_PayloadContainsNewlines(t *testing.T) {
	stream := `{"type":"text","value":"line one\nline two"}` + sep
	events := collect(t, NewDecoder(strings.NewReader(stream)))
	if len(events) != 1 || events[0].Value != "line one\nline two" {
		t.Fatalf("events = %+v", events)
	}
}

func TestDecoder_UnknownTypeIgnored(t *testing.T) {
	stream := `{"type":"metadata","value":"v2"}` + sep +
		`{"type":"text","value":"ok"}` + sep

	events := collect(t, NewDecoder(strings.NewReader(stream)))
	if len(events) != 1 || events[0].Value != "ok" {
		t.Fatalf("events = %+v", events)
	}
}

func TestDecoder_MalformedRecordSkipped(t *testing.T) {
	stream := `{"type":"text","val` + sep + // truncated JSON
		`{"type":"text","value":"after"}` + sep

	events := collect(t, NewDecoder(strings.NewReader(stream)))
	if len(events) != 1 || events[0].Value != "after" {
		t.Fatalf("events = %+v", events)
	}
}

func TestDecoder_UnterminatedFinalRecord(t *testing.T) {
	stream := `{"type":"text","value":"a"}` + sep + `{"type":"text","value":"b"}`
	events := collect(t, NewDecoder(strings.NewReader(stream)))
	if len(events) != 2 || events[1].Value != "b" {
		t.Fatalf("events = %+v", events)
	}
}

func TestDecoder_EmptyStream(t *testing.T) {
	if events := collect(t, NewDecoder(strings.NewReader(""))); len(events) != 0 {
		t.Fatalf("events = %+v, want none", events)
	}
}

func TestDecoder_DrainInto(t *testing.T) {
	stream := `{"type":"text","value":"x"}` + sep + `{"type":"audio","value":"c"}` + sep
	var got []Event
	err := NewDecoder(strings.NewReader(stream)).DrainInto(func(ev Event) {
		got = append(got, ev)
	})
	if err != nil {
		t.Fatalf("DrainInto: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %+v", got)
	}
}

// Package response decodes the generation service's streamed reply into an
// ordered sequence of typed events.
//
// The wire format is a sequence of JSON records separated by the ASCII
// record-separator byte (0x1E). A separator rather than a newline delimits
// records because text payloads may themselves contain newlines. Each
// record is a discriminated union:
//
//	{"type":"text","value":"<incremental text delta>"}
//	{"type":"audio","value":"<opaque clip handle>"}
//
// Decoding is single-pass and destructive: events are yielded in arrival
// order and the stream cannot be rewound. Records split across delivery
// chunks are buffered until complete; unknown record types are skipped for
// forward compatibility, and malformed records are skipped rather than
// failing the whole stream.
package response

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// RecordSeparator delimits records in the generation response stream.
const RecordSeparator byte = 0x1E

// maxRecordSize bounds a single record. Text deltas are sentence-sized and
// clip handles are short, so anything near this limit is a protocol error.
const maxRecordSize = 1 << 20

// EventType discriminates decoded events.
type EventType int

const (
	// EventText carries an incremental text delta of the bot's reply.
	EventText EventType = iota

	// EventAudioClip carries the opaque handle of a synthesised audio clip
	// ready to be fetched.
	EventAudioClip
)

// Event is one decoded record from the response stream.
type Event struct {
	Type EventType

	// Value is the text delta for [EventText] or the clip handle for
	// [EventAudioClip].
	Value string
}

// record is the wire shape of one JSON record.
type record struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Decoder reads events from a generation response stream. Create one per
// stream with [NewDecoder]; it is not safe for concurrent use.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder wraps r in a Decoder. The caller retains ownership of r and is
// responsible for closing it once decoding finishes.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 4096), maxRecordSize)
	sc.Split(splitRecords)
	return &Decoder{scanner: sc}
}

// Next returns the next event from the stream. It blocks until a complete
// record is available, the stream ends ([io.EOF]), or reading fails.
// Malformed and unknown records are skipped with a debug log, never
// surfaced as errors.
func (d *Decoder) Next() (Event, error) {
	for d.scanner.Scan() {
		raw := d.scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			// Empty fragment from a trailing separator.
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Debug("skipping malformed response record", "err", err, "bytes", len(raw))
			continue
		}

		switch rec.Type {
		case "text":
			return Event{Type: EventText, Value: rec.Value}, nil
		case "audio":
			return Event{Type: EventAudioClip, Value: rec.Value}, nil
		default:
			slog.Debug("skipping unknown response record type", "type", rec.Type)
		}
	}

	if err := d.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("response: read stream: %w", err)
	}
	return Event{}, io.EOF
}

// splitRecords is a [bufio.SplitFunc] that tokenises on the record
// separator. A partial record at stream end (unterminated) is returned as a
// final token so a producer that omits the trailing separator still has its
// last record decoded.
func splitRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, RecordSeparator); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	// Request more data; the record is split across chunks.
	return 0, nil, nil
}

// DrainInto reads every remaining event from d and invokes fn for each, in
// order. It returns nil when the stream ends normally.
func (d *Decoder) DrainInto(fn func(Event)) error {
	for {
		ev, err := d.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(ev)
	}
}

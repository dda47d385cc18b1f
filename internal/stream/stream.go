// Package stream decodes the backend's `data: <json>` event stream and folds
// events into chat state.
//
// The reducer is pure. Decode is the only part that touches I/O: it turns a
// response body into a lazy sequence of events, reading one chunk at a time.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"promptdeck/internal/logging"
	"promptdeck/internal/models"
)

const (
	DataPrefix = "data: "

	// FallbackError is shown when a failure carries no message of its own.
	FallbackError = "An error occurred"

	doneSentinel = "[DONE]"
	chunkSize    = 4096
)

// Initial is the state before any send.
func Initial() models.ChatState {
	return models.ChatState{Status: models.StatusIdle}
}

// Fresh is the state a new send starts from. Prior fragments and errors are discarded.
func Fresh() models.ChatState {
	return models.ChatState{Status: models.StatusProcessing, Fragments: []string{}}
}

// Reduce applies one event. An error state ignores everything after it. A
// complete status seen mid-stream still takes fragments and errors.
func Reduce(state models.ChatState, ev models.StreamEvent) models.ChatState {
	if state.Status == models.StatusError {
		return state
	}

	switch ev.Type {
	case models.EventStatus:
		next := models.StatusProcessing
		if ev.Data.Status != nil {
			next = *ev.Data.Status
		}
		switch next {
		case models.StatusIdle:
			// would move the session backwards
			return state
		case models.StatusError:
			return Fail(state, deref(ev.Data.Error))
		case models.StatusProcessing, models.StatusComplete:
			state.Status = next
		default:
			state.Status = models.StatusProcessing
		}
		return state

	case models.EventResponse:
		state.Fragments = append(slices.Clip(state.Fragments), deref(ev.Data.Message))
		return state

	case models.EventError:
		return Fail(state, deref(ev.Data.Error))
	}

	return state
}

// Fail moves state to error with msg, or the fallback message if msg is empty.
// The first error wins.
func Fail(state models.ChatState, msg string) models.ChatState {
	if state.Status == models.StatusError {
		return state
	}
	if msg == "" {
		msg = FallbackError
	}
	state.Status = models.StatusError
	state.Error = msg
	return state
}

// Complete is the end-of-stream transition. An error state is kept.
func Complete(state models.ChatState) models.ChatState {
	if state.Status == models.StatusError {
		return state
	}
	state.Status = models.StatusComplete
	return state
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ErrNotEvent marks a `data: ` line whose payload is not a JSON event.
var ErrNotEvent = errors.New("malformed stream event")

// ParseLine decodes one line. ok is false for lines that carry no event.
func ParseLine(line string) (ev models.StreamEvent, ok bool, err error) {
	payload, found := strings.CutPrefix(line, DataPrefix)
	if !found {
		return models.StreamEvent{}, false, nil
	}
	if strings.TrimSpace(payload) == doneSentinel {
		return models.StreamEvent{}, false, nil
	}
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return models.StreamEvent{}, false, fmt.Errorf("%w: %v", ErrNotEvent, err)
	}
	return ev, true, nil
}

// LineDecoder splits a byte stream into lines, carrying an unterminated tail
// across chunks. A multi-byte rune split between chunks is rejoined in the tail.
type LineDecoder struct {
	buf []byte
}

// Feed consumes a chunk and returns the lines it completed, without terminators.
func (d *LineDecoder) Feed(chunk []byte) []string {
	d.buf = append(d.buf, chunk...)
	var lines []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(bytes.TrimSuffix(d.buf[:i], []byte{'\r'})))
		d.buf = d.buf[i+1:]
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return lines
}

// Flush returns the trailing unterminated line, if any.
func (d *LineDecoder) Flush() []string {
	if len(d.buf) == 0 {
		return nil
	}
	line := string(bytes.TrimSuffix(d.buf, []byte{'\r'}))
	d.buf = nil
	return []string{line}
}

// Decode yields the events in r in arrival order. Malformed lines are logged
// and skipped. A read failure is yielded once as a non-nil error and ends
// the sequence. The input runs through a stateful UTF-8 decoder, so invalid
// bytes become U+FFFD and split runes survive chunk boundaries.
func Decode(ctx context.Context, r io.Reader, logger *slog.Logger) iter.Seq2[models.StreamEvent, error] {
	logger = logging.OrDefault(logger)
	return func(yield func(models.StreamEvent, error) bool) {
		src := transform.NewReader(r, unicode.UTF8.NewDecoder())
		var lines LineDecoder
		buf := make([]byte, chunkSize)

		emit := func(batch []string) bool {
			for _, line := range batch {
				ev, ok, err := ParseLine(line)
				if err != nil {
					logger.Error("Error parsing SSE data", "error", err, "line", line)
					continue
				}
				if !ok {
					continue
				}
				if !yield(ev, nil) {
					return false
				}
			}
			return true
		}

		for {
			if err := ctx.Err(); err != nil {
				yield(models.StreamEvent{}, err)
				return
			}
			n, err := src.Read(buf)
			if n > 0 && !emit(lines.Feed(buf[:n])) {
				return
			}
			if errors.Is(err, io.EOF) {
				emit(lines.Flush())
				return
			}
			if err != nil {
				yield(models.StreamEvent{}, err)
				return
			}
		}
	}
}

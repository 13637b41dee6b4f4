// Package hardware decodes the line protocol spoken by the rotary dial and
// microphone microcontroller.
//
// Recognized lines:
//
//	Microphone Activated
//	Microphone Deactivated
//	Rotation Count: <int>
//
// Unrecognized lines are ignored; a rotation line with a malformed count is a
// parse error that the listener logs and discards.
package hardware

import (
	"errors"
	"strconv"
	"strings"

	"memoria/internal/services"
)

// EventKind identifies a decoded hardware event.
type EventKind int

const (
	// EventMicActivated reports the microphone switch turning on.
	EventMicActivated EventKind = iota
	// EventMicDeactivated reports the microphone switch turning off.
	EventMicDeactivated
	// EventRotation reports a dial rotation landing on a selection.
	EventRotation
)

// Event is one decoded hardware event. Count is meaningful only for
// EventRotation.
type Event struct {
	Kind  EventKind
	Count int
}

func (k EventKind) String() string {
	switch k {
	case EventMicActivated:
		return "mic-activated"
	case EventMicDeactivated:
		return "mic-deactivated"
	case EventRotation:
		return "rotation"
	default:
		return "unknown"
	}
}

const (
	lineMicActivated   = "Microphone Activated"
	lineMicDeactivated = "Microphone Deactivated"
	rotationPrefix     = "Rotation Count:"
)

// ErrUnrecognized marks a protocol line the parser does not know. Callers
// skip such lines without logging.
var ErrUnrecognized = errors.New("unrecognized line")

// ParseLine decodes one raw protocol line. Malformed rotation payloads return
// an error tagged services.ErrParse; lines outside the protocol return
// ErrUnrecognized.
func ParseLine(line string) (Event, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == lineMicActivated:
		return Event{Kind: EventMicActivated}, nil
	case line == lineMicDeactivated:
		return Event{Kind: EventMicDeactivated}, nil
	case strings.HasPrefix(line, rotationPrefix):
		payload := strings.TrimSpace(strings.TrimPrefix(line, rotationPrefix))
		count, err := strconv.Atoi(payload)
		if err != nil {
			return Event{}, services.Wrap(services.ErrParse, "hardware", "rotation count", line, err)
		}
		return Event{Kind: EventRotation, Count: count}, nil
	default:
		return Event{}, ErrUnrecognized
	}
}

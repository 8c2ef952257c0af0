package reelsdk

import (
	"bufio"
	"io"
	"strings"
)

// Event is one server-sent event.
type Event struct {
	Name string
	ID   string
	Data string
}

// EventReader decodes a text/event-stream body.
type EventReader struct {
	scanner *bufio.Scanner
}

// NewEventReader wraps r, typically the body returned by Client.Stream.
func NewEventReader(r io.Reader) *EventReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &EventReader{scanner: scanner}
}

// Next returns the next event. It returns io.EOF once the stream ends
// without a pending event.
func (r *EventReader) Next() (Event, error) {
	var (
		ev      Event
		data    []string
		pending bool
	)
	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")
		if line == "" {
			if pending {
				ev.Data = strings.Join(data, "\n")
				return ev, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			data = append(data, value)
			pending = true
		case "event":
			ev.Name = value
			pending = true
		case "id":
			ev.ID = value
			pending = true
		}
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	if pending {
		ev.Data = strings.Join(data, "\n")
		return ev, nil
	}
	return Event{}, io.EOF
}

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"
)

// Event is one of the payloads a LogEntry can carry.
type Event interface {
	isEvent()
}

// RunCommand is logged for every line a session dispatches.
type RunCommand struct {
	Raw        string `json:"raw"`
	Expanded   string `json:"expanded,omitempty"`
	Kind       string `json:"kind"`
	ExitStatus int    `json:"exit_status"`
	Depth      int    `json:"depth,omitempty"`
}

// DefineFunction is logged when a function is created or replaced.
type DefineFunction struct {
	Name       string   `json:"name"`
	Commands   []string `json:"commands"`
	SingleLine bool     `json:"single_line,omitempty"`
	Replaced   bool     `json:"replaced,omitempty"`
}

// DeleteFunction is logged when a function is removed.
type DeleteFunction struct {
	Name string `json:"name"`
}

// Expansion is logged for every $[...] span that gets replaced.
type Expansion struct {
	Span   string `json:"span"`
	Result string `json:"result"`
}

// ErrorEvent is logged when a session reports a failure to the user.
type ErrorEvent struct {
	Context string `json:"context"`
	Message string `json:"message"`
}

func (*RunCommand) isEvent()     {}
func (*DefineFunction) isEvent() {}
func (*DeleteFunction) isEvent() {}
func (*Expansion) isEvent()      {}
func (*ErrorEvent) isEvent()     {}

// LogEntry is a single line of the event log. Exactly one payload is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	RunCommand     *RunCommand     `json:"run_command,omitempty"`
	DefineFunction *DefineFunction `json:"define_function,omitempty"`
	DeleteFunction *DeleteFunction `json:"delete_function,omitempty"`
	Expansion      *Expansion      `json:"expansion,omitempty"`
	Error          *ErrorEvent     `json:"error,omitempty"`
}

// GetLogType returns the entry's payload, or nil if it has none.
func (le *LogEntry) GetLogType() Event {
	switch {
	case le.RunCommand != nil:
		return le.RunCommand
	case le.DefineFunction != nil:
		return le.DefineFunction
	case le.DeleteFunction != nil:
		return le.DeleteFunction
	case le.Expansion != nil:
		return le.Expansion
	case le.Error != nil:
		return le.Error
	}
	return nil
}

func (le *LogEntry) setLogType(event Event) error {
	switch event := event.(type) {
	case *RunCommand:
		le.RunCommand = event
	case *DefineFunction:
		le.DefineFunction = event
	case *DeleteFunction:
		le.DeleteFunction = event
	case *Expansion:
		le.Expansion = event
	case *ErrorEvent:
		le.Error = event
	default:
		return fmt.Errorf("unknown event type %T", event)
	}
	return nil
}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *LogEntry) error

// EventLog captures what sessions did so it can be reported on later.
type EventLog struct {
	Record LogRecorder

	now func() time.Time
}

// NewJSONLinesLogRecorder creates an EventLog that writes newline delimited
// JSON objects to w.
func NewJSONLinesLogRecorder(w io.Writer) *EventLog {
	return &EventLog{
		Record: func(le *LogEntry) error {
			entry, err := json.Marshal(le)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// SetClock replaces the source of entry timestamps.
func (l *EventLog) SetClock(now func() time.Time) {
	l.now = now
}

func (l *EventLog) recordLogType(sessionID string, event Event) error {
	now := time.Now
	if l.now != nil {
		now = l.now
	}

	le := &LogEntry{
		TimestampMicros: now().UnixMicro(),
		SessionID:       sessionID,
	}
	if err := le.setLogType(event); err != nil {
		return err
	}
	return l.Record(le)
}

// NewSession creates a logger with a random session ID attached.
func (l *EventLog) NewSession() *SessionLogger {
	return l.NewSessionWithID(fmt.Sprintf("%d", rand.Uint64()))
}

// NewSessionWithID creates a logger with the given session ID attached.
func (l *EventLog) NewSessionWithID(id string) *SessionLogger {
	return &SessionLogger{EventLog: l, sessionID: id}
}

// SessionLogger logs events with a shared session ID. A nil SessionLogger
// discards everything.
type SessionLogger struct {
	*EventLog
	sessionID string
}

// SessionID gets the ID attached to every entry.
func (l *SessionLogger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// Record writes event to the log.
func (l *SessionLogger) Record(event Event) error {
	if l == nil || l.EventLog == nil {
		return nil
	}
	return l.recordLogType(l.sessionID, event)
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}
		handler(&logEntry)
	}
	return nil
}

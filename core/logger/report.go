package logger

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SessionReport summarizes a single session.
type SessionReport struct {
	LogEntries int      `json:"log_entries"`
	Commands   []string `json:"commands"`
	Functions  []string `json:"functions,omitempty"`
	Errors     int      `json:"errors,omitempty"`
}

// Update adds a log entry to the report.
func (i *SessionReport) Update(le *LogEntry) {
	i.LogEntries++

	switch event := le.GetLogType().(type) {
	case *RunCommand:
		i.Commands = append(i.Commands, event.Raw)
	case *DefineFunction:
		i.Functions = append(i.Functions, event.Name)
	case *ErrorEvent:
		i.Errors++
	}
}

// SessionsReport groups entries by session.
type SessionsReport struct {
	// Map of sessionID -> session
	sessions map[string]*SessionReport
}

func (i *SessionsReport) init() {
	if i.sessions == nil {
		i.sessions = make(map[string]*SessionReport)
	}
}

// MarshalJSON implements custom JSON marshaler.
func (i *SessionsReport) MarshalJSON() ([]byte, error) {
	i.init()

	return json.Marshal(i.sessions)
}

// Update adds a log entry to the report of its session.
func (i *SessionsReport) Update(le *LogEntry) {
	i.init()

	if le.SessionID == "" {
		return
	}
	report, ok := i.sessions[le.SessionID]
	if !ok {
		report = &SessionReport{}
		i.sessions[le.SessionID] = report
	}

	report.Update(le)
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	RunCommand RunCommandReport `json:"run_command_report"`
	Functions  FunctionReport   `json:"function_report"`
	Expansion  ExpansionReport  `json:"expansion_report"`
	Errors     *PathCounter     `json:"error_report"`
	Sessions   SessionsReport   `json:"sessions"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Errors: NewPathCounter("context", "message"),
	}
}

// Update adds a log entry to the report.
func (r *Report) Update(le *LogEntry) {
	r.LogEntries++
	r.Sessions.Update(le)

	switch event := le.GetLogType().(type) {
	case *RunCommand:
		r.RunCommand.update(event)
	case *DefineFunction:
		r.Functions.Defined.Increment(event.Name)
	case *DeleteFunction:
		r.Functions.Deleted.Increment(event.Name)
	case *Expansion:
		r.Expansion.update(event)
	case *ErrorEvent:
		if r.Errors == nil {
			r.Errors = NewPathCounter("context", "message")
		}
		r.Errors.Increment(event.Context, event.Message)
	default:
		r.InvalidEntries.Increment(fmt.Sprintf("%T", event))
	}
}

// RunCommandReport counts dispatched lines.
type RunCommandReport struct {
	// First word of the expanded line.
	CommandNames StrCounter `json:"command_names"`
	// builtin, function or external.
	Kinds        StrCounter `json:"kinds"`
	ExitStatuses StrCounter `json:"exit_statuses"`
}

func (r *RunCommandReport) update(rc *RunCommand) {
	line := rc.Expanded
	if line == "" {
		line = rc.Raw
	}
	if fields := strings.Fields(line); len(fields) > 0 {
		r.CommandNames.Increment(fields[0])
	}
	r.Kinds.Increment(rc.Kind)
	r.ExitStatuses.Increment(fmt.Sprintf("%d", rc.ExitStatus))
}

// FunctionReport counts function table changes by name.
type FunctionReport struct {
	Defined StrCounter `json:"defined"`
	Deleted StrCounter `json:"deleted"`
}

// ExpansionReport counts span expansions.
type ExpansionReport struct {
	Count int `json:"count"`
	// Pipeline steps, in the order they were written.
	Steps StrCounter `json:"steps"`
}

func (r *ExpansionReport) update(e *Expansion) {
	r.Count++

	span := strings.TrimSuffix(strings.TrimPrefix(e.Span, "$["), "]")
	parts := strings.Split(span, "=>")
	for _, step := range parts[1:] {
		if step = strings.TrimSpace(step); step != "" {
			r.Steps.Increment(step)
		}
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implements custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of strings seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// MarshalJSON implements custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}

package harness

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field is one key=value pair of a trace event.
type Field struct {
	Key   string
	Value string
}

// TraceEvent is one thing that happened during a run.
type TraceEvent struct {
	// Offset is the fake clock's distance from the scenario start.
	Offset time.Duration
	// Kind names the event: a step action, "notification" or "request".
	Kind   string
	Fields []Field
}

// String renders the event as one trace line:
//
//	+3h0m0s check_reminder fired=true slot=1
func (e TraceEvent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "+%s %s", e.Offset, e.Kind)
	for _, f := range e.Fields {
		fmt.Fprintf(&b, " %s=%s", f.Key, formatValue(f.Value))
	}
	return b.String()
}

// formatValue quotes values that would be ambiguous unquoted.
func formatValue(v string) string {
	if v == "" || strings.ContainsAny(v, " =\"\t\n") {
		return strconv.Quote(v)
	}
	return v
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool

	// Trace contains every event in order.
	Trace []TraceEvent

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string

	Notifications int
	Requests      int
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// add appends an event to the trace.
func (r *Result) add(offset time.Duration, kind string, fields ...Field) {
	r.Trace = append(r.Trace, TraceEvent{Offset: offset, Kind: kind, Fields: fields})
}

// TraceText renders the whole trace, one event per line, with a header.
func (r *Result) TraceText(name string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s\n", name)
	for _, e := range r.Trace {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

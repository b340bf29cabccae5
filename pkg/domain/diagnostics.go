package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/aretw0/pageflow/pkg/vars"
)

// LogEntry is one informational record of the execution log.
type LogEntry struct {
	Time      time.Time      `json:"time"`
	PageIndex int            `json:"page_index"`
	Message   string         `json:"message"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// Diagnostics is the execution log and error log of a single call.
// It is returned by value from every generation; engines never keep one.
type Diagnostics struct {
	ExecutionLog []LogEntry   `json:"execution_log,omitempty"`
	ErrorLog     []*FlowError `json:"errors,omitempty"`
}

// UnmarshalJSON restores an entry with attribute values normalized the way
// Log stores them.
func (l *LogEntry) UnmarshalJSON(data []byte) error {
	type plain LogEntry
	var in struct {
		plain
		Attrs vars.Context `json:"attrs,omitempty"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*l = LogEntry(in.plain)
	l.Attrs = nil
	if in.Attrs.Len() > 0 {
		l.Attrs = in.Attrs.Map()
	}
	return nil
}

// Log appends an informational entry. Times are UTC without a monotonic
// reading and attribute values are normalized, so entries survive
// serialization unchanged.
func (d *Diagnostics) Log(pageIndex int, message string, attrs map[string]any) {
	var normalized map[string]any
	if len(attrs) > 0 {
		normalized = vars.New(attrs).Map()
	}
	d.ExecutionLog = append(d.ExecutionLog, LogEntry{
		Time:      time.Now().UTC(),
		PageIndex: pageIndex,
		Message:   message,
		Attrs:     normalized,
	})
}

// Record appends an error.
func (d *Diagnostics) Record(err *FlowError) {
	if err == nil {
		return
	}
	d.ErrorLog = append(d.ErrorLog, err)
}

// Logs returns a copy of the execution log.
func (d Diagnostics) Logs() []LogEntry {
	return append([]LogEntry(nil), d.ExecutionLog...)
}

// Errors returns a copy of the error log.
func (d Diagnostics) Errors() []*FlowError {
	return append([]*FlowError(nil), d.ErrorLog...)
}

// ErrorsOf returns the recorded errors of one kind.
func (d Diagnostics) ErrorsOf(kind ErrorKind) []*FlowError {
	var out []*FlowError
	for _, e := range d.ErrorLog {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// HasErrors reports whether any error was recorded.
func (d Diagnostics) HasErrors() bool {
	return len(d.ErrorLog) > 0
}

// Err joins every recorded error, or returns nil.
func (d Diagnostics) Err() error {
	if len(d.ErrorLog) == 0 {
		return nil
	}
	errs := make([]error, len(d.ErrorLog))
	for i, e := range d.ErrorLog {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Reset clears both logs.
func (d *Diagnostics) Reset() {
	d.ExecutionLog = nil
	d.ErrorLog = nil
}

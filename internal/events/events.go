// Package events defines the typed progress events the pipeline reports
// through a caller-supplied sink. Front-ends decide what to do with them:
// the CLI bridges events to the structured logger, tests collect them into
// a slice, and a future UI can key progress bars off the phase markers.
package events

import (
	"fmt"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/logger"
)

// Phase identifies one of the four pipeline stages.
type Phase int

const (
	// PhaseNone marks events outside the phase sequence (setup, summary).
	PhaseNone Phase = iota
	// PhaseLoad is phase 1: reading the raw input table.
	PhaseLoad
	// PhaseTransform is phase 2: header reconciliation and field derivation.
	PhaseTransform
	// PhaseValidate is phase 3: row cleanup and column-order enforcement.
	PhaseValidate
	// PhaseWrite is phase 4: workbook output.
	PhaseWrite
)

// String returns the display form front-ends key on ("Phase 1".."Phase 4").
func (p Phase) String() string {
	switch p {
	case PhaseLoad:
		return "Phase 1"
	case PhaseTransform:
		return "Phase 2"
	case PhaseValidate:
		return "Phase 3"
	case PhaseWrite:
		return "Phase 4"
	default:
		return ""
	}
}

// Severity classifies an event.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

// Event is a single progress report from the pipeline.
type Event struct {
	Phase    Phase
	Severity Severity
	Message  string
	Err      error
}

// Sink receives pipeline events. Emit must be safe to call from the
// goroutine running the pipeline; implementations decide their own
// synchronization.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) {
	f(e)
}

// Nop returns a sink that discards every event.
func Nop() Sink {
	return SinkFunc(func(Event) {})
}

// NewLogSink bridges events to the structured logger. Warnings map to Warn,
// errors to Error, everything else to Info. Phase markers become a "phase"
// attribute so log lines stay grep-able.
func NewLogSink(log *logger.Logger) Sink {
	return SinkFunc(func(e Event) {
		args := make([]any, 0, 4)
		if e.Phase != PhaseNone {
			args = append(args, "phase", e.Phase.String())
		}
		if e.Err != nil {
			args = append(args, "error", e.Err)
		}
		switch e.Severity {
		case Warning:
			log.Warn(e.Message, args...)
		case Error:
			log.Error(e.Message, args...)
		default:
			log.Info(e.Message, args...)
		}
	})
}

// Infof emits a formatted info event to the sink.
func Infof(s Sink, phase Phase, format string, args ...any) {
	s.Emit(Event{Phase: phase, Severity: Info, Message: fmt.Sprintf(format, args...)})
}

// Warnf emits a formatted warning event to the sink.
func Warnf(s Sink, phase Phase, format string, args ...any) {
	s.Emit(Event{Phase: phase, Severity: Warning, Message: fmt.Sprintf(format, args...)})
}

// Errorf emits an error event carrying err to the sink.
func Errorf(s Sink, phase Phase, err error, format string, args ...any) {
	s.Emit(Event{Phase: phase, Severity: Error, Message: fmt.Sprintf(format, args...), Err: err})
}

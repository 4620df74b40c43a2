package events

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/logger"
)

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "Phase 1", PhaseLoad.String())
	assert.Equal(t, "Phase 2", PhaseTransform.String())
	assert.Equal(t, "Phase 3", PhaseValidate.String())
	assert.Equal(t, "Phase 4", PhaseWrite.String())
	assert.Equal(t, "", PhaseNone.String())
}

func TestEmitHelpers(t *testing.T) {
	var collected []Event
	sink := SinkFunc(func(e Event) { collected = append(collected, e) })

	wrapped := errors.New("boom")
	Infof(sink, PhaseLoad, "loaded %d rows", 3)
	Warnf(sink, PhaseValidate, "dropped %d rows", 1)
	Errorf(sink, PhaseWrite, wrapped, "write failed")

	require.Len(t, collected, 3)
	assert.Equal(t, Event{Phase: PhaseLoad, Severity: Info, Message: "loaded 3 rows"}, collected[0])
	assert.Equal(t, Event{Phase: PhaseValidate, Severity: Warning, Message: "dropped 1 rows"}, collected[1])
	assert.Equal(t, PhaseWrite, collected[2].Phase)
	assert.Equal(t, Error, collected[2].Severity)
	assert.Equal(t, "write failed", collected[2].Message)
	assert.ErrorIs(t, collected[2].Err, wrapped)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Emit(Event{Message: "ignored"})
	})
}

func TestNewLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(logger.NewWithWriter("info", &buf))

	Infof(sink, PhaseTransform, "Phase 2: Applying MSM transformations...")
	Warnf(sink, PhaseValidate, "Dropped 1 rows with missing JIRA IDs.")
	Errorf(sink, PhaseNone, errors.New("boom"), "FAILED: MSM transformation did not complete.")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `phase="Phase 2"`)
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error=boom")

	// Events outside the phase sequence carry no phase attribute.
	assert.NotContains(t, out, `phase=""`)
}

package browsersdk

import (
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type detectorFixture struct {
	hub      *Hub
	detector *InteractionDetector
	mock     *clock.Mock
	rec      *eventRecorder
}

func newDetectorFixture(t *testing.T, overlap OverlapPolicy) *detectorFixture {
	t.Helper()
	mock := clock.NewMock()
	hub := NewHub(nil)
	correlator := NewActivityCorrelator(hub, nil)
	correlator.Start()
	detector, err := NewInteractionDetector(hub, correlator, DetectorConfig{
		Clock:   mock,
		Overlap: overlap,
	})
	require.NoError(t, err)
	rec := &eventRecorder{}
	hub.Subscribe(rec.record)
	return &detectorFixture{hub: hub, detector: detector, mock: mock, rec: rec}
}

func (f *detectorFixture) waitReports(t *testing.T, n int) []*InteractionReport {
	t.Helper()
	require.True(t, waitUntil(time.Second, func() bool { return len(f.rec.reports()) >= n }),
		"expected %d reports, got %d", n, len(f.rec.reports()))
	return f.rec.reports()
}

func TestDetector_NoActivityAborts(t *testing.T) {
	f := newDetectorFixture(t, OverlapDiscard)

	f.detector.HandleTrigger(Trigger{Name: "click"})
	f.mock.Add(DefaultBusyDelay)

	reports := f.waitReports(t, 1)
	require.Len(t, reports, 1, "no extended observations before an abort")
	r := reports[0]
	assert.Equal(t, ReportIgnored, r.Name)
	assert.Zero(t, r.Duration)
	assert.NotEmpty(t, r.InteractionID)

	_, ok := f.detector.CurrentInteractionID()
	assert.False(t, ok, "the id never binds without activity")
}

func TestDetector_ActivityThenIdleCompletes(t *testing.T) {
	f := newDetectorFixture(t, OverlapDiscard)

	f.detector.HandleTrigger(Trigger{
		Name:    "click",
		Element: &Element{Tag: "button", Attributes: map[string]string{"aria-label": "Buy"}},
	})
	f.mock.Add(20 * time.Millisecond)
	f.hub.Notify(LifecycleEvent{Kind: KindDomMutated})

	reports := f.rec.reports()
	require.Len(t, reports, 1)
	extended := reports[0]
	assert.Equal(t, ReportExtended, extended.Name)
	assert.Equal(t, 20*time.Millisecond, extended.Duration)
	assert.Equal(t, ReasonDomMutation, extended.Context.Reason)
	assert.Equal(t, "button", extended.Context.Element)
	assert.Equal(t, "Buy", extended.Context.Content)

	id, ok := f.detector.CurrentInteractionID()
	require.True(t, ok, "the id binds on the first activity signal")
	assert.Equal(t, extended.InteractionID, id)

	f.mock.Add(DefaultIdleDelay)
	reports = f.waitReports(t, 2)
	terminal := reports[1]
	assert.Equal(t, ReportCompleted, terminal.Name)
	assert.Equal(t, 120*time.Millisecond, terminal.Duration)
	assert.Equal(t, extended.InteractionID, terminal.InteractionID)

	_, ok = f.detector.CurrentInteractionID()
	assert.False(t, ok, "the id clears on the terminal report")
}

func TestDetector_OutstandingRequestDefersIdle(t *testing.T) {
	f := newDetectorFixture(t, OverlapDiscard)

	f.detector.HandleTrigger(Trigger{Name: "click"})
	f.mock.Add(10 * time.Millisecond)
	f.hub.Notify(requestEvent(KindRequestStart, "r1", "https://x.test/api"))

	reports := f.rec.reports()
	require.Len(t, reports, 1)
	assert.Equal(t, ReportExtended, reports[0].Name)
	assert.Equal(t, 10*time.Millisecond, reports[0].Duration)

	// Well past both delays, but the request is still in flight: nothing fires.
	f.mock.Add(240 * time.Millisecond)
	require.Len(t, f.rec.reports(), 1)

	f.hub.Notify(requestEvent(KindRequestEnd, "r1", "https://x.test/api"))
	reports = f.rec.reports()
	require.Len(t, reports, 2)
	assert.Equal(t, 250*time.Millisecond, reports[1].Duration)

	f.mock.Add(DefaultIdleDelay)
	reports = f.waitReports(t, 3)
	terminal := reports[2]
	assert.Equal(t, ReportCompleted, terminal.Name)
	assert.Equal(t, 350*time.Millisecond, terminal.Duration)
}

func TestDetector_RepeatedActivityKeepsWindowOpen(t *testing.T) {
	f := newDetectorFixture(t, OverlapDiscard)

	f.detector.HandleTrigger(Trigger{Name: "click"})
	for i := 0; i < 5; i++ {
		f.mock.Add(50 * time.Millisecond)
		f.hub.Notify(LifecycleEvent{Kind: KindDomMutated})
	}

	reports := f.rec.reports()
	require.Len(t, reports, 5)
	for _, r := range reports {
		assert.Equal(t, ReportExtended, r.Name)
	}

	f.mock.Add(DefaultIdleDelay)
	reports = f.waitReports(t, 6)
	assert.Equal(t, ReportCompleted, reports[5].Name)
	assert.Equal(t, 350*time.Millisecond, reports[5].Duration)
}

func TestDetector_UnknownRequestEndDoesNotValidate(t *testing.T) {
	f := newDetectorFixture(t, OverlapDiscard)

	f.detector.HandleTrigger(Trigger{Name: "click"})
	f.hub.Notify(requestEvent(KindRequestEnd, "ghost", "https://x.test/old"))
	f.mock.Add(DefaultBusyDelay)

	reports := f.waitReports(t, 1)
	require.Len(t, reports, 1)
	assert.Equal(t, ReportIgnored, reports[0].Name)
}

func TestDetector_OverlapDiscard(t *testing.T) {
	f := newDetectorFixture(t, OverlapDiscard)

	f.detector.HandleTrigger(Trigger{Name: "click"})
	f.hub.Notify(LifecycleEvent{Kind: KindDomMutated})
	first, ok := f.detector.CurrentInteractionID()
	require.True(t, ok)

	f.detector.HandleTrigger(Trigger{Name: "click"})
	current, ok := f.detector.CurrentInteractionID()
	require.True(t, ok)
	assert.Equal(t, first, current, "the second trigger is discarded")

	f.mock.Add(DefaultIdleDelay)
	reports := f.waitReports(t, 2)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Equal(t, first, r.InteractionID)
	}
}

func TestDetector_OverlapReplace(t *testing.T) {
	f := newDetectorFixture(t, OverlapReplace)

	f.detector.HandleTrigger(Trigger{Name: "click"})
	f.hub.Notify(LifecycleEvent{Kind: KindDomMutated})
	first, ok := f.detector.CurrentInteractionID()
	require.True(t, ok)

	f.detector.HandleTrigger(Trigger{Name: "click"})

	reports := f.rec.reports()
	require.Len(t, reports, 2)
	assert.Equal(t, ReportExtended, reports[0].Name)
	assert.Equal(t, ReportIgnored, reports[1].Name)
	assert.Equal(t, first, reports[1].InteractionID)

	// The replacement window proceeds independently.
	f.hub.Notify(LifecycleEvent{Kind: KindDomMutated})
	f.mock.Add(DefaultIdleDelay)
	reports = f.waitReports(t, 4)
	terminal := reports[3]
	assert.Equal(t, ReportCompleted, terminal.Name)
	assert.NotEqual(t, first, terminal.InteractionID)
}

func TestDetector_NegativeDelayRejected(t *testing.T) {
	hub := NewHub(nil)
	correlator := NewActivityCorrelator(hub, nil)
	_, err := NewInteractionDetector(hub, correlator, DetectorConfig{BusyDelay: -time.Millisecond})
	require.ErrorIs(t, err, ErrInvalidDelay)
}

// TestDetector_SingleTerminalReport drives random signal sequences and checks
// that each interaction publishes exactly one terminal report, always last.
func TestDetector_SingleTerminalReport(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mock := clock.NewMock()
		hub := NewHub(nil)
		correlator := NewActivityCorrelator(hub, nil)
		correlator.Start()
		detector, err := NewInteractionDetector(hub, correlator, DetectorConfig{Clock: mock})
		if err != nil {
			rt.Fatalf("NewInteractionDetector: %v", err)
		}
		rec := &eventRecorder{}
		hub.Subscribe(rec.record)

		detector.HandleTrigger(Trigger{Name: "click"})

		var open []string
		steps := rapid.IntRange(0, 12).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0:
				ms := rapid.IntRange(0, 150).Draw(rt, "advance")
				mock.Add(time.Duration(ms) * time.Millisecond)
			case 1:
				hub.Notify(LifecycleEvent{Kind: KindDomMutated})
			case 2:
				id := fmt.Sprintf("r%d", i)
				hub.Notify(requestEvent(KindRequestStart, id, "https://x.test/"+id))
				open = append(open, id)
			case 3:
				if len(open) > 0 {
					id := open[len(open)-1]
					open = open[:len(open)-1]
					hub.Notify(requestEvent(KindRequestEnd, id, "https://x.test/"+id))
				}
			}
		}

		// Settle: finish outstanding requests and let the timers elapse.
		for len(open) > 0 {
			id := open[len(open)-1]
			open = open[:len(open)-1]
			hub.Notify(requestEvent(KindRequestEnd, id, "https://x.test/"+id))
		}
		mock.Add(DefaultBusyDelay + DefaultIdleDelay)

		if !waitUntil(time.Second, func() bool { return len(rec.terminals()) == 1 }) {
			rt.Fatalf("expected exactly one terminal report, got %d", len(rec.terminals()))
		}

		reports := rec.reports()
		last := reports[len(reports)-1]
		if !last.Terminal() {
			rt.Fatalf("terminal report is not the last event: %q", last.Name)
		}
		for _, r := range reports[:len(reports)-1] {
			if r.Terminal() {
				rt.Fatalf("report %q published before the terminal one", r.Name)
			}
			if r.InteractionID != last.InteractionID {
				rt.Fatalf("mixed interaction ids in a single-trigger run")
			}
		}
		if _, ok := detector.CurrentInteractionID(); ok {
			rt.Fatalf("current interaction id not cleared after terminal report")
		}
	})
}

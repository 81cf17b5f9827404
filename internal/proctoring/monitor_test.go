package proctoring

import "testing"

func TestMonitorTabSwitchAutoSubmit(t *testing.T) {
	submissions := 0
	var submittedWith Counters
	m := NewMonitor(func(c Counters) {
		submissions++
		submittedWith = c
	})

	if got := m.State(ViolationTabSwitch); got != StateClean {
		t.Fatalf("initial state = %s, want %s", got, StateClean)
	}

	if got := m.RecordViolation(ViolationTabSwitch); got != ActionWarn {
		t.Fatalf("first violation action = %s, want %s", got, ActionWarn)
	}
	if got := m.State(ViolationTabSwitch); got != StateWarned {
		t.Fatalf("state after warning = %s, want %s", got, StateWarned)
	}

	if got := m.RecordViolation(ViolationTabSwitch); got != ActionAutoSubmit {
		t.Fatalf("second violation action = %s, want %s", got, ActionAutoSubmit)
	}
	if got := m.State(ViolationTabSwitch); got != StateViolated {
		t.Fatalf("state after trip = %s, want %s", got, StateViolated)
	}
	if submissions != 1 {
		t.Fatalf("auto-submit fired %d times, want exactly 1", submissions)
	}
	if submittedWith.TabSwitch != 2 {
		t.Fatalf("submitted counters = %+v, want 2 tab switches", submittedWith)
	}

	// Further events are counted but never resubmit.
	if got := m.RecordViolation(ViolationTabSwitch); got != ActionNone {
		t.Fatalf("post-submit action = %s, want %s", got, ActionNone)
	}
	if submissions != 1 {
		t.Fatalf("auto-submit fired %d times after extra event, want 1", submissions)
	}
	if got := m.Counters().TabSwitch; got != 3 {
		t.Fatalf("tab switch count = %d, want 3", got)
	}
}

func TestMonitorFaceThreshold(t *testing.T) {
	submissions := 0
	m := NewMonitor(func(Counters) { submissions++ })

	for i := 0; i < FaceWarnLimit; i++ {
		if got := m.RecordViolation(ViolationNoFace); got != ActionWarn {
			t.Fatalf("face violation %d action = %s, want %s", i+1, got, ActionWarn)
		}
	}
	if submissions != 0 {
		t.Fatalf("submitted during warnings, want none")
	}

	if got := m.RecordViolation(ViolationNoFace); got != ActionAutoSubmit {
		t.Fatalf("violation past limit action = %s, want %s", got, ActionAutoSubmit)
	}
	if submissions != 1 {
		t.Fatalf("auto-submit fired %d times, want 1", submissions)
	}
}

func TestMonitorClassesTrackedIndependently(t *testing.T) {
	m := NewMonitor(nil)

	m.RecordViolation(ViolationTabSwitch)
	m.RecordViolation(ViolationNoFace)
	m.RecordViolation(ViolationMultipleFaces)

	if got := m.State(ViolationTabSwitch); got != StateWarned {
		t.Errorf("tab switch state = %s, want %s", got, StateWarned)
	}
	if got := m.State(ViolationFaceChanged); got != StateClean {
		t.Errorf("face changed state = %s, want %s", got, StateClean)
	}

	c := m.Counters()
	if c.TabSwitch != 1 || c.NoFace != 1 || c.MultipleFaces != 1 || c.FaceChanged != 0 {
		t.Errorf("counters = %+v", c)
	}
}

func TestMonitorCountersFeedSubmission(t *testing.T) {
	var got Counters
	m := NewMonitor(func(c Counters) { got = c })

	m.RecordViolation(ViolationNoFace)
	m.RecordViolation(ViolationFaceChanged)
	m.RecordViolation(ViolationNoFace)
	m.RecordViolation(ViolationNoFace) // trips the face threshold

	if !m.Submitted() {
		t.Fatal("monitor did not submit")
	}
	want := Counters{NoFace: 3, FaceChanged: 1}
	if got != want {
		t.Fatalf("submitted counters = %+v, want %+v", got, want)
	}
}

func TestMonitorUnknownViolationIgnored(t *testing.T) {
	m := NewMonitor(nil)
	if got := m.RecordViolation(ViolationType("telepathy")); got != ActionNone {
		t.Fatalf("unknown violation action = %s, want %s", got, ActionNone)
	}
	if m.Counters() != (Counters{}) {
		t.Fatalf("counters changed for unknown violation: %+v", m.Counters())
	}
}

// Package proctoring implements the in-session violation monitor: a
// small state machine that warns on the first violation of a class and
// auto-submits the attempt when the class threshold is exceeded. State
// is per session only; a page reload starts a fresh monitor.
package proctoring

import "sync"

type ViolationType string

const (
	ViolationTabSwitch     ViolationType = "tab_switch"
	ViolationNoFace        ViolationType = "no_face"
	ViolationMultipleFaces ViolationType = "multiple_faces"
	ViolationFaceChanged   ViolationType = "face_changed"
)

type MonitorState string

const (
	StateClean    MonitorState = "clean"
	StateWarned   MonitorState = "warned"
	StateViolated MonitorState = "violated"
)

// Action tells the caller what the monitor decided for an event.
type Action string

const (
	ActionNone       Action = "none"
	ActionWarn       Action = "warn"
	ActionAutoSubmit Action = "auto_submit"
)

// Warning thresholds per violation class: how many warnings a user gets
// before the monitor trips and forces submission. Deployments tune
// strictness here rather than in the transition logic.
const (
	TabSwitchWarnLimit = 1
	FaceWarnLimit      = 2
)

var warnLimits = map[ViolationType]int{
	ViolationTabSwitch:     TabSwitchWarnLimit,
	ViolationNoFace:        FaceWarnLimit,
	ViolationMultipleFaces: FaceWarnLimit,
	ViolationFaceChanged:   FaceWarnLimit,
}

// Counters tracks violations per class for the current session. The
// counts are what gets attached to the submission at record time.
type Counters struct {
	TabSwitch     int `json:"tab_switch"`
	NoFace        int `json:"no_face"`
	MultipleFaces int `json:"multiple_faces"`
	FaceChanged   int `json:"face_changed"`
}

// Monitor tracks violation state for one in-progress test session.
// Safe for concurrent use; auto-submission fires at most once.
type Monitor struct {
	mu        sync.Mutex
	states    map[ViolationType]MonitorState
	counters  Counters
	submitted bool
	onSubmit  func(Counters)
}

// NewMonitor creates a monitor in the Clean state. onSubmit is invoked
// exactly once, with the accumulated counters, when any violation class
// exceeds its warning limit. A nil callback is allowed.
func NewMonitor(onSubmit func(Counters)) *Monitor {
	return &Monitor{
		states:   make(map[ViolationType]MonitorState),
		onSubmit: onSubmit,
	}
}

// RecordViolation applies one violation event and returns the resulting
// action: a one-time warning, an auto-submission, or nothing (events
// after submission are counted but otherwise ignored).
func (m *Monitor) RecordViolation(v ViolationType) Action {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit, known := warnLimits[v]
	if !known {
		return ActionNone
	}

	m.count(v)

	if m.submitted {
		return ActionNone
	}

	warnings := m.classCount(v)
	switch {
	case warnings <= 0:
		return ActionNone
	case warnings <= limit:
		m.states[v] = StateWarned
		return ActionWarn
	default:
		m.states[v] = StateViolated
		m.submitted = true
		if m.onSubmit != nil {
			m.onSubmit(m.counters)
		}
		return ActionAutoSubmit
	}
}

// State reports the monitor state for one violation class.
func (m *Monitor) State(v ViolationType) MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[v]; ok {
		return s
	}
	return StateClean
}

// Counters returns a snapshot of the accumulated violation counts.
func (m *Monitor) Counters() Counters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters
}

// Submitted reports whether the monitor already forced a submission.
func (m *Monitor) Submitted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitted
}

func (m *Monitor) count(v ViolationType) {
	switch v {
	case ViolationTabSwitch:
		m.counters.TabSwitch++
	case ViolationNoFace:
		m.counters.NoFace++
	case ViolationMultipleFaces:
		m.counters.MultipleFaces++
	case ViolationFaceChanged:
		m.counters.FaceChanged++
	}
}

func (m *Monitor) classCount(v ViolationType) int {
	switch v {
	case ViolationTabSwitch:
		return m.counters.TabSwitch
	case ViolationNoFace:
		return m.counters.NoFace
	case ViolationMultipleFaces:
		return m.counters.MultipleFaces
	case ViolationFaceChanged:
		return m.counters.FaceChanged
	}
	return 0
}

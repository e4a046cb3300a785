// Package configurator implements the history-tracked configuration store for
// the fixture configurator and the saved-configuration client types.
package configurator

import (
	"sync"

	"github.com/lumera/portal/internal/observability"
)

// Scene identifies a predefined lighting scene.
type Scene string

const (
	SceneAmbient Scene = "ambient"
	SceneFocus   Scene = "focus"
	SceneRelax   Scene = "relax"
	SceneReading Scene = "reading"
)

// Brightness and color temperature bounds for a configuration snapshot.
const (
	MinBrightness = 0
	MaxBrightness = 100
	MinColorTemp  = 2000
	MaxColorTemp  = 6500
)

// Snapshot is one immutable configuration state. The snapshot is the unit of
// undo: a change to a single field still produces a full snapshot of all three.
type Snapshot struct {
	Brightness       int   `json:"brightness"`
	ColorTemperature int   `json:"colorTemperature"`
	Scene            Scene `json:"scene"`
}

// Equal compares all three fields structurally.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.Brightness == other.Brightness &&
		s.ColorTemperature == other.ColorTemperature &&
		s.Scene == other.Scene
}

// Clamp returns the snapshot with both numeric fields forced into range.
func (s Snapshot) Clamp() Snapshot {
	if s.Brightness < MinBrightness {
		s.Brightness = MinBrightness
	}
	if s.Brightness > MaxBrightness {
		s.Brightness = MaxBrightness
	}
	if s.ColorTemperature < MinColorTemp {
		s.ColorTemperature = MinColorTemp
	}
	if s.ColorTemperature > MaxColorTemp {
		s.ColorTemperature = MaxColorTemp
	}
	return s
}

// HistoryStore holds the current configuration and a linear undo/redo buffer.
//
// History is append-only except for the branch-on-edit truncation: editing
// after an undo discards the previously-undone future. The buffer is never
// empty once initialized and the cursor always satisfies
// 0 <= index < len(history). History is ephemeral per editing session; only
// an explicit save reaches the remote configuration list.
type HistoryStore struct {
	mu      sync.Mutex
	history []Snapshot
	index   int
	metrics *observability.RuntimeMetrics
}

// NewHistoryStore seeds the buffer with the initial snapshot. Metrics may be nil.
func NewHistoryStore(initial Snapshot, metrics *observability.RuntimeMetrics) *HistoryStore {
	return &HistoryStore{
		history: []Snapshot{initial.Clamp()},
		index:   0,
		metrics: metrics,
	}
}

// Current returns the snapshot at the cursor.
func (h *HistoryStore) Current() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history[h.index]
}

// SetBrightness applies a brightness change as a new snapshot.
func (h *HistoryStore) SetBrightness(value int) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.history[h.index]
	next.Brightness = value
	return h.pushLocked(next.Clamp())
}

// SetColorTemperature applies a color-temperature change as a new snapshot.
func (h *HistoryStore) SetColorTemperature(value int) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.history[h.index]
	next.ColorTemperature = value
	return h.pushLocked(next.Clamp())
}

// SetScene applies a scene change as a new snapshot.
func (h *HistoryStore) SetScene(scene Scene) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.history[h.index]
	next.Scene = scene
	return h.pushLocked(next)
}

// Apply replaces the whole configuration in one step, e.g. when the UI loads
// a saved configuration into the editor.
func (h *HistoryStore) Apply(snapshot Snapshot) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pushLocked(snapshot.Clamp())
}

// Undo steps the cursor back one snapshot. At the initial state it is a
// no-op; the second return reports whether anything changed.
func (h *HistoryStore) Undo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == 0 {
		return h.history[h.index], false
	}
	h.index--
	return h.history[h.index], true
}

// Redo steps the cursor forward one snapshot. At the tip it is a no-op.
func (h *HistoryStore) Redo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= len(h.history)-1 {
		return h.history[h.index], false
	}
	h.index++
	return h.history[h.index], true
}

// Depth returns the current buffer length.
func (h *HistoryStore) Depth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.history)
}

// Index returns the current cursor position.
func (h *HistoryStore) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

func (h *HistoryStore) pushLocked(next Snapshot) Snapshot {
	if next.Equal(h.history[h.index]) {
		return h.history[h.index]
	}
	// Branch on edit: truncate any previously-undone future before appending.
	h.history = append(h.history[:h.index+1], next)
	h.index = len(h.history) - 1
	if h.metrics != nil {
		h.metrics.RecordHistoryDepth(len(h.history))
	}
	return next
}

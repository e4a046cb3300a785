package configurator

import "testing"

func initial() Snapshot {
	return Snapshot{Brightness: 80, ColorTemperature: 3000, Scene: SceneAmbient}
}

func TestUndoAtInitialStateIsNoop(t *testing.T) {
	store := NewHistoryStore(initial(), nil)

	snap, changed := store.Undo()
	if changed {
		t.Fatal("undo at index 0 must be a no-op")
	}
	if !snap.Equal(initial()) {
		t.Fatalf("state changed by boundary undo: %+v", snap)
	}
	if store.Index() != 0 {
		t.Fatalf("index moved to %d", store.Index())
	}
}

func TestRedoAtTipIsNoop(t *testing.T) {
	store := NewHistoryStore(initial(), nil)
	store.SetBrightness(50)

	if _, changed := store.Redo(); changed {
		t.Fatal("redo at the tip must be a no-op")
	}
	if store.Index() != 1 {
		t.Fatalf("index moved to %d", store.Index())
	}
}

func TestEditAfterUndoDiscardsRedoBranch(t *testing.T) {
	store := NewHistoryStore(initial(), nil) // S0
	store.SetBrightness(50)                  // S1

	if _, changed := store.Undo(); !changed {
		t.Fatal("expected undo to step back to S0")
	}
	store.SetScene(SceneFocus) // S2, destroys the S1 redo path

	if store.Depth() != 2 {
		t.Fatalf("expected history [S0 S2], got depth %d", store.Depth())
	}
	if store.Index() != 1 {
		t.Fatalf("expected index 1, got %d", store.Index())
	}
	current := store.Current()
	if current.Scene != SceneFocus || current.Brightness != 80 {
		t.Fatalf("expected S2 derived from S0, got %+v", current)
	}
	if _, changed := store.Redo(); changed {
		t.Fatal("the discarded branch must not be redoable")
	}
}

func TestNoopEditCreatesNoHistoryEntry(t *testing.T) {
	store := NewHistoryStore(initial(), nil)

	store.SetBrightness(80) // same value as current
	if store.Depth() != 1 {
		t.Fatalf("identical snapshot must not be appended, depth %d", store.Depth())
	}
}

func TestSingleFieldChangeSnapshotsAllFields(t *testing.T) {
	store := NewHistoryStore(initial(), nil)
	store.SetColorTemperature(4200)

	snap, changed := store.Undo()
	if !changed {
		t.Fatal("expected undo to restore the previous snapshot")
	}
	if !snap.Equal(initial()) {
		t.Fatalf("undo must restore all three fields, got %+v", snap)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	store := NewHistoryStore(initial(), nil)
	store.SetBrightness(20)
	store.SetScene(SceneRelax)

	if _, changed := store.Undo(); !changed {
		t.Fatal("first undo should change state")
	}
	if _, changed := store.Undo(); !changed {
		t.Fatal("second undo should change state")
	}
	if !store.Current().Equal(initial()) {
		t.Fatalf("expected initial state, got %+v", store.Current())
	}

	if _, changed := store.Redo(); !changed {
		t.Fatal("first redo should change state")
	}
	snap, changed := store.Redo()
	if !changed {
		t.Fatal("second redo should change state")
	}
	if snap.Brightness != 20 || snap.Scene != SceneRelax {
		t.Fatalf("expected tip snapshot restored, got %+v", snap)
	}
}

func TestClampEnforcesFieldRanges(t *testing.T) {
	store := NewHistoryStore(Snapshot{Brightness: 300, ColorTemperature: 100, Scene: SceneAmbient}, nil)
	snap := store.Current()
	if snap.Brightness != MaxBrightness || snap.ColorTemperature != MinColorTemp {
		t.Fatalf("expected clamped initial snapshot, got %+v", snap)
	}

	snap = store.SetBrightness(-5)
	if snap.Brightness != MinBrightness {
		t.Fatalf("expected brightness clamped to %d, got %d", MinBrightness, snap.Brightness)
	}
	snap = store.SetColorTemperature(9000)
	if snap.ColorTemperature != MaxColorTemp {
		t.Fatalf("expected color temperature clamped to %d, got %d", MaxColorTemp, snap.ColorTemperature)
	}
}

func TestApplyPushesWholeSnapshot(t *testing.T) {
	store := NewHistoryStore(initial(), nil)
	store.Apply(Snapshot{Brightness: 10, ColorTemperature: 6000, Scene: SceneReading})

	if store.Depth() != 2 || store.Index() != 1 {
		t.Fatalf("expected one appended snapshot, depth=%d index=%d", store.Depth(), store.Index())
	}
	if snap, changed := store.Undo(); !changed || !snap.Equal(initial()) {
		t.Fatalf("expected undo back to initial, got %+v", snap)
	}
}

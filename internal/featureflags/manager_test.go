package featureflags

import "testing"

func TestNewManager_DefaultsWhenUnset(t *testing.T) {
	m, err := NewManager("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Enabled(RealtimeFanout, 7) {
		t.Fatal("realtime fan-out should default to on")
	}

	var unset *Manager
	if !unset.Enabled(RealtimeFanout, 7) {
		t.Fatal("nil manager should report defaults")
	}
}

func TestNewManager_OnOffValues(t *testing.T) {
	for raw, want := range map[string]bool{
		"realtime_fanout=off":       false,
		" Realtime_Fanout = FALSE ": false,
		"realtime_fanout=0":         false,
		"realtime_fanout=on":        true,
		"realtime_fanout=1":         true,
		"realtime_fanout=100%":      true,
		"realtime_fanout=0%":        false,
	} {
		m, err := NewManager(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if got := m.Enabled(RealtimeFanout, 42); got != want {
			t.Fatalf("%q: Enabled = %v, want %v", raw, got, want)
		}
	}
}

func TestNewManager_RejectsBadInput(t *testing.T) {
	for _, raw := range []string{
		"realtime_fanout",
		"realtime_fanot=on",
		"realtime_fanout=maybe",
		"realtime_fanout=150%",
		"realtime_fanout=-5%",
	} {
		if _, err := NewManager(raw); err == nil {
			t.Fatalf("%q: expected an error", raw)
		}
	}
}

func TestEnabled_PartialRolloutIsStablePerUser(t *testing.T) {
	m, err := NewManager("realtime_fanout=30%")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	on := 0
	for id := uint(1); id <= 1000; id++ {
		first := m.Enabled(RealtimeFanout, id)
		if m.Enabled(RealtimeFanout, id) != first {
			t.Fatalf("user %d flipped between calls", id)
		}
		if first {
			on++
		}
	}
	if on == 0 || on == 1000 {
		t.Fatalf("30%% rollout enabled %d of 1000 users", on)
	}
	if m.Enabled(RealtimeFanout, 0) {
		t.Fatal("partial rollout must exclude the zero user id")
	}
}

func TestRolloutAndSnapshot(t *testing.T) {
	m, err := NewManager("realtime_fanout=off")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := m.Rollout()["realtime_fanout"]; got != "0%" {
		t.Fatalf("Rollout = %q, want 0%%", got)
	}
	snap := m.Snapshot(9)
	if len(snap) != len(Flags()) || snap["realtime_fanout"] {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}

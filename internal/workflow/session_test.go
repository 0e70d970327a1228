package workflow

import "testing"

// --- NewSessionState ---

func TestNewSessionState_StartsAtInit(t *testing.T) {
	s := NewSessionState()
	if s.Mode != ModeInit {
		t.Errorf("Mode = %s, want Init", s.Mode)
	}
	if s.Complexity != LevelUnset {
		t.Errorf("Complexity = %d, want unset", int(s.Complexity))
	}
	if s.CreatedAt == "" || s.UpdatedAt == "" {
		t.Error("timestamps should be set")
	}
}

// --- Clone ---

func TestClone_DeepCopiesComponents(t *testing.T) {
	s := NewSessionState()
	s.Components = []DesignComponent{{Name: "A", Kind: KindArchitecture}}

	c := s.Clone()
	c.Components[0].Resolved = true
	c.Components[0].Decision = "changed"

	if s.Components[0].Resolved {
		t.Error("mutating the clone leaked into the original components")
	}
}

func TestClone_DeepCopiesExtraArtifacts(t *testing.T) {
	s := NewSessionState()
	s.Artifacts.Extra = map[string]string{"notes": "original"}

	c := s.Clone()
	c.Artifacts.Extra["notes"] = "changed"

	if s.Artifacts.Extra["notes"] != "original" {
		t.Error("mutating the clone leaked into the original extra artifacts")
	}
}

// --- Component / UnresolvedCount ---

func TestComponent_Lookup(t *testing.T) {
	s := NewSessionState()
	s.Components = []DesignComponent{
		{Name: "A", Kind: KindArchitecture},
		{Name: "B", Kind: KindAlgorithm},
	}

	if c := s.Component("B"); c == nil || c.Kind != KindAlgorithm {
		t.Errorf("Component(B) = %+v", c)
	}
	if c := s.Component("missing"); c != nil {
		t.Errorf("Component(missing) = %+v, want nil", c)
	}

	// The returned pointer aliases the session's slice.
	s.Component("A").Resolved = true
	if !s.Components[0].Resolved {
		t.Error("Component should return a pointer into the slice")
	}
}

func TestUnresolvedCount(t *testing.T) {
	s := NewSessionState()
	if s.UnresolvedCount() != 0 {
		t.Errorf("empty session UnresolvedCount = %d", s.UnresolvedCount())
	}

	s.Components = []DesignComponent{
		{Name: "A", Resolved: true},
		{Name: "B"},
		{Name: "C"},
	}
	if got := s.UnresolvedCount(); got != 2 {
		t.Errorf("UnresolvedCount = %d, want 2", got)
	}
}

// --- Artifacts.Map ---

func TestArtifactsMap_CanonicalKeysWin(t *testing.T) {
	a := Artifacts{
		Tasks:         "t",
		ActiveContext: "ac",
		Progress:      "p",
		Extra:         map[string]string{"tasks": "shadowed", "notes": "n"},
	}

	m := a.Map()
	if m[ArtifactTasks] != "t" {
		t.Errorf("canonical tasks should win over extra, got %q", m[ArtifactTasks])
	}
	if m["notes"] != "n" {
		t.Errorf("extra entries should be carried, got %q", m["notes"])
	}
	if len(m) != 4 {
		t.Errorf("Map returned %d entries, want 4", len(m))
	}
}

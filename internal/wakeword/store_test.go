package wakeword

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateStartsDisabled(t *testing.T) {
	s := openTestStore(t)

	p, err := s.Create("hey roadtrip", 0, true, []float64{0.1, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	if p.Enabled {
		t.Error("new profile must start disabled")
	}
	if p.Sensitivity != DefaultSensitivity {
		t.Errorf("zero sensitivity should take default, got %v", p.Sensitivity)
	}

	if _, err := s.Create("   ", 0.5, false, nil); err == nil {
		t.Error("blank phrase should be rejected")
	}
}

func TestEnableSwapsAtomically(t *testing.T) {
	s := openTestStore(t)

	a, _ := s.Create("hey roadtrip", 0.5, false, []float64{1})
	b, _ := s.Create("okay storyteller", 0.5, true, []float64{1})

	if err := s.Enable(a.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Enable(b.ID); err != nil {
		t.Fatal(err)
	}

	profiles, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	enabled := 0
	for _, p := range profiles {
		if p.Enabled {
			enabled++
			if p.ID != b.ID {
				t.Errorf("wrong profile enabled: %s", p.ID)
			}
		}
	}
	if enabled != 1 {
		t.Fatalf("expected exactly one enabled profile, got %d", enabled)
	}
}

func TestEnabledReturnsTemplate(t *testing.T) {
	s := openTestStore(t)

	// No profile enabled yet.
	_, _, ok, err := s.Enabled()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("no profile should be enabled in a fresh store")
	}

	template := []float64{0.25, 0.5, 0.75}
	p, _ := s.Create("hey roadtrip", 0.6, true, template)
	if err := s.Enable(p.ID); err != nil {
		t.Fatal(err)
	}

	got, tpl, ok, err := s.Enabled()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got.ID != p.ID {
		t.Fatalf("enabled profile not returned: ok=%v id=%s", ok, got.ID)
	}
	if len(tpl) != len(template) || tpl[0] != 0.25 {
		t.Errorf("template round trip failed: %v", tpl)
	}
	if got.Sensitivity != 0.6 {
		t.Errorf("sensitivity: got %v", got.Sensitivity)
	}
}

func TestUnknownIDReturnsNotFound(t *testing.T) {
	s := openTestStore(t)

	for _, err := range []error{
		s.Enable("missing"),
		s.Disable("missing"),
		s.Delete("missing"),
		s.SetSensitivity("missing", 0.5),
	} {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	}
}

func TestHealKeepsNewestEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.db")
	s, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}

	older, _ := s.Create("first phrase", 0.5, false, []float64{1})
	newer, _ := s.Create("second phrase", 0.5, false, []float64{1})

	// Violate the invariant directly, as a crashed half-finished swap would.
	if _, err := s.db.Exec(`UPDATE wake_profiles SET enabled = 1`); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	profiles, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range profiles {
		switch p.ID {
		case newer.ID:
			if !p.Enabled {
				t.Error("newest profile should keep its enabled flag")
			}
		case older.ID:
			if p.Enabled {
				t.Error("older profile should have been healed to disabled")
			}
		}
	}
}

func TestSetSensitivityBounds(t *testing.T) {
	s := openTestStore(t)
	p, _ := s.Create("hey roadtrip", 0.5, false, nil)

	if err := s.SetSensitivity(p.ID, 1.5); err == nil {
		t.Error("out-of-range sensitivity should be rejected")
	}
	if err := s.SetSensitivity(p.ID, 0.7); err != nil {
		t.Fatal(err)
	}
}

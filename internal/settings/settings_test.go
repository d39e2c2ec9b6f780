package settings

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	s, err := loadFrom(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("loadFrom() failed: %v", err)
	}
	if s.ActiveProfile != "" || s.ActiveHost != "" {
		t.Errorf("loadFrom() on missing file = %+v, want zero value", s)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := &Settings{ActiveProfile: "work", ActiveHost: "laptop", Elevator: "doas"}
	if err := s.saveTo(path); err != nil {
		t.Fatalf("saveTo() failed: %v", err)
	}

	loaded, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom() failed: %v", err)
	}
	if *loaded != *s {
		t.Errorf("loadFrom() = %+v, want %+v", loaded, s)
	}
}

func TestElevatorOrDefaultFallsBackWhenUnset(t *testing.T) {
	s := &Settings{}
	if got := s.ElevatorOrDefault(); got != DefaultElevator {
		t.Errorf("ElevatorOrDefault() = %q, want %q", got, DefaultElevator)
	}
	s.Elevator = "doas"
	if got := s.ElevatorOrDefault(); got != "doas" {
		t.Errorf("ElevatorOrDefault() = %q, want %q", got, "doas")
	}
}

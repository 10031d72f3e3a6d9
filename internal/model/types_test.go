package model

import (
	"testing"
	"time"
)

func TestTelemetryFromMap(t *testing.T) {
	tel := TelemetryFromMap(map[string]any{
		"speed":             float64(42.5),
		"is_navigating":     true,
		"traffic_condition": "heavy",
		"weather_condition": "fog",
		"upcoming_maneuver": "left turn",
		"maneuver_distance": 120,
		"timestamp":         "2026-08-30T10:00:00Z",
	})

	if tel.Speed != 42.5 {
		t.Errorf("speed: got %v", tel.Speed)
	}
	if !tel.IsNavigating {
		t.Error("is_navigating not set")
	}
	if tel.Traffic != TrafficHeavy || tel.Weather != WeatherFog {
		t.Errorf("conditions: got %s / %s", tel.Traffic, tel.Weather)
	}
	if tel.ManeuverDistance != 120 {
		t.Errorf("maneuver_distance: got %v", tel.ManeuverDistance)
	}
	want, _ := time.Parse(time.RFC3339, "2026-08-30T10:00:00Z")
	if !tel.Timestamp.Equal(want) {
		t.Errorf("timestamp: got %v", tel.Timestamp)
	}
}

func TestTelemetryFromMapDefensive(t *testing.T) {
	// Missing fields take the conservative reading.
	tel := TelemetryFromMap(nil)
	if tel.Speed != UnknownSpeed || tel.ManeuverDistance != UnknownDistance {
		t.Errorf("nil map: got speed=%v distance=%v", tel.Speed, tel.ManeuverDistance)
	}

	// Wrong types are ignored, not fatal.
	tel = TelemetryFromMap(map[string]any{
		"speed":         "fast",
		"is_navigating": "yes",
		"timestamp":     "not a time",
	})
	if tel.Speed != UnknownSpeed {
		t.Errorf("string speed should stay unknown, got %v", tel.Speed)
	}
	if tel.IsNavigating {
		t.Error("string is_navigating should stay false")
	}
	if !tel.Timestamp.IsZero() {
		t.Error("unparseable timestamp should stay zero")
	}
}

func TestAlwaysAvailableSet(t *testing.T) {
	for _, action := range []string{"stop", "pause", "help", "cancel"} {
		if !IsAlwaysAvailable(action) {
			t.Errorf("%s should be always available", action)
		}
	}
	for _, action := range []string{"play", "navigate", "book", ""} {
		if IsAlwaysAvailable(action) {
			t.Errorf("%s should not be always available", action)
		}
	}
}

func TestNewCommandMarksEmergencySet(t *testing.T) {
	if !NewCommand("stop", nil, 0.95).AlwaysAvailable {
		t.Error("stop command not marked always available")
	}
	if NewCommand("play", nil, 0.95).AlwaysAvailable {
		t.Error("play command wrongly marked always available")
	}
}

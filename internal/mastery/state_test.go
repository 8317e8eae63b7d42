package mastery

import (
	"testing"
	"time"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		acc      float64
		attempts int
		want     int
	}{
		{0, 0, 0},
		{100, 0, 0},
		{0, 1, 1},
		{100, 4, 1},
		{60, 5, 2},
		{59.9, 30, 1},
		{75, 10, 3},
		{74.9, 10, 2},
		{85, 15, 4},
		{85, 14, 3},
		{95, 20, 5},
		{95, 19, 4},
		{100, 100, 5},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.acc, tt.attempts); got != tt.want {
			t.Errorf("LevelFor(%v, %d) = %d, want %d", tt.acc, tt.attempts, got, tt.want)
		}
	}
}

func TestLevelName(t *testing.T) {
	if got := LevelName(0); got != "Not Started" {
		t.Errorf("LevelName(0) = %q", got)
	}
	if got := LevelName(5); got != "Master" {
		t.Errorf("LevelName(5) = %q", got)
	}
	if got := LevelName(9); got != "Unknown" {
		t.Errorf("LevelName(9) = %q", got)
	}
}

func TestAccuracy_NoAttempts(t *testing.T) {
	m := StudentMastery{}
	if got := m.Accuracy(); got != 0 {
		t.Errorf("Accuracy() = %v, want 0", got)
	}
}

func TestRecord_SetsMasteredAtOnce(t *testing.T) {
	m := StudentMastery{}
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		m.record(true, 30, t0)
	}
	if m.Level != 5 {
		t.Fatalf("Level = %d, want 5", m.Level)
	}
	if m.MasteredAt == nil || !m.MasteredAt.Equal(t0) {
		t.Fatalf("MasteredAt = %v, want %v", m.MasteredAt, t0)
	}

	m.record(true, 30, t0.Add(time.Hour))
	if !m.MasteredAt.Equal(t0) {
		t.Errorf("MasteredAt moved to %v", m.MasteredAt)
	}
	if m.TotalPracticeSecs != 630 {
		t.Errorf("TotalPracticeSecs = %v, want 630", m.TotalPracticeSecs)
	}
}

func TestPlacementFloor(t *testing.T) {
	now := time.Now()
	m := StudentMastery{}
	m.place(true, 0, now)
	if m.Level != PlacementCorrectLevel {
		t.Fatalf("Level after placement = %d, want %d", m.Level, PlacementCorrectLevel)
	}

	// A wrong answer right after placement must not drop below the floor.
	m.record(false, 10, now)
	if m.Level != PlacementCorrectLevel {
		t.Errorf("Level after one miss = %d, want %d", m.Level, PlacementCorrectLevel)
	}

	for m.TotalAttempts < placementFloorAttempts {
		m.record(false, 10, now)
	}
	if m.Level != 1 {
		t.Errorf("Level after floor expired = %d, want 1", m.Level)
	}
}

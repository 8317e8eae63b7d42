package mastery

import (
	"math"
	"time"

	"github.com/abhisek/adaptiq/internal/skillgraph"
)

// StudentMastery is a student's record for one skill.
type StudentMastery struct {
	StudentID         string
	SkillID           string
	Level             int
	TotalAttempts     int
	CorrectAttempts   int
	TotalPracticeSecs float64
	PlacementLevel    int
	LastAssessedAt    time.Time
	MasteredAt        *time.Time // When level 5 was first reached
	Version           int64
}

// Accuracy returns correct/total as a percentage, 0 when there are no attempts.
func (m *StudentMastery) Accuracy() float64 {
	if m.TotalAttempts <= 0 {
		return 0.0
	}
	return float64(m.CorrectAttempts) / float64(m.TotalAttempts) * 100
}

// ProgressPercentage maps the level onto 0..100.
func (m *StudentMastery) ProgressPercentage() float64 {
	return math.Min(100, float64(m.Level)/skillgraph.MaxLevel*100)
}

// record applies one attempt and recomputes the level.
func (m *StudentMastery) record(correct bool, secs float64, now time.Time) {
	m.TotalAttempts++
	if correct {
		m.CorrectAttempts++
	}
	if secs > 0 && !math.IsInf(secs, 0) {
		m.TotalPracticeSecs += secs
	}
	m.LastAssessedAt = now
	m.recomputeLevel(now)
}

func (m *StudentMastery) recomputeLevel(now time.Time) {
	level := LevelFor(m.Accuracy(), m.TotalAttempts)
	if m.TotalAttempts < placementFloorAttempts && m.PlacementLevel > level {
		level = m.PlacementLevel
	}
	m.Level = level
	if m.Level >= skillgraph.MaxLevel && m.MasteredAt == nil {
		t := now
		m.MasteredAt = &t
	}
}

// place seeds the record from a single placement answer.
func (m *StudentMastery) place(correct bool, secs float64, now time.Time) {
	m.TotalAttempts = 1
	m.CorrectAttempts = 0
	m.PlacementLevel = PlacementWrongLevel
	if correct {
		m.CorrectAttempts = 1
		m.PlacementLevel = PlacementCorrectLevel
	}
	if secs > 0 && !math.IsInf(secs, 0) {
		m.TotalPracticeSecs = secs
	}
	m.LastAssessedAt = now
	m.recomputeLevel(now)
}

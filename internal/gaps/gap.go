// Package gaps derives remediation priorities from a student's knowledge
// state and keeps them as per-topic rows.
package gaps

import (
	"math"
	"time"

	"github.com/abhisek/adaptiq/internal/knowledge"
)

// Severity bands a topic's proficiency.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Thresholds and targets.
const (
	TargetLevel = 0.8

	criticalBelow = 0.3
	highBelow     = 0.5
	mediumBelow   = 0.7 // topics at or above this are not gaps

	hoursPerUnit = 100.0
)

// Gap is a student's stored gap on one topic.
type Gap struct {
	ID                 int64
	StudentID          string
	Topic              knowledge.Topic
	ProficiencyLevel   float64
	TargetLevel        float64
	Severity           Severity
	Priority           int
	EstimatedHours     float64
	ProgressPercentage float64
	Addressed          bool
	AssessedAt         time.Time
}

// SeverityFor bands a proficiency score.
func SeverityFor(p float64) Severity {
	switch {
	case p < criticalBelow:
		return SeverityCritical
	case p < highBelow:
		return SeverityHigh
	case p < mediumBelow:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// IsGap reports whether a proficiency is low enough to report.
func IsGap(p float64) bool {
	return p < mediumBelow
}

func (s Severity) base() int {
	switch s {
	case SeverityCritical:
		return 10
	case SeverityHigh:
		return 8
	case SeverityMedium:
		return 5
	default:
		return 3
	}
}

// Priority is the severity base plus int((target-p)*5), clamped to [1,10].
func Priority(s Severity, p float64) int {
	pr := s.base() + int((TargetLevel-p)*5)
	return min(10, max(1, pr))
}

// EstimatedHours is 100 hours per unit of deficit to the target, rounded to
// one decimal.
func EstimatedHours(p float64) float64 {
	return math.Round((TargetLevel-p)*hoursPerUnit*10) / 10
}

// clampProgress bounds a progress percentage to [0,100].
func clampProgress(pct float64) float64 {
	if math.IsNaN(pct) {
		return 0
	}
	return math.Min(100, math.Max(0, pct))
}

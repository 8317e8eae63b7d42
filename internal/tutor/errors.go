package tutor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced student, skill or content
	// item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLockedSkill matches any *LockedSkillError.
	ErrLockedSkill = errors.New("skill locked")

	// ErrNotConfigured is returned by operations whose optional dependency
	// was not supplied.
	ErrNotConfigured = errors.New("not configured")
)

// LockedSkillError rejects practice on a skill whose prerequisites are
// below the unlock threshold.
type LockedSkillError struct {
	SkillID string
	Missing []string
}

func (e *LockedSkillError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("skill %q is locked", e.SkillID)
	}
	return fmt.Sprintf("skill %q is locked: needs %s", e.SkillID, strings.Join(e.Missing, ", "))
}

func (e *LockedSkillError) Unwrap() error { return ErrLockedSkill }

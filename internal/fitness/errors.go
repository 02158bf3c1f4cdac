package fitness

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrNotFound is returned when a referenced user or goal does not
	// exist or has been deactivated.
	ErrNotFound = errors.New("fitness: not found")
	// ErrAlreadyRegistered is returned by Register for a user who
	// already has an active profile.
	ErrAlreadyRegistered = errors.New("fitness: user already registered")
)

// ValidationError describes a rejected user input. It carries the raw input
// back to the caller so prompts can echo what was rejected and how long it
// was.
type ValidationError struct {
	Field      string
	Constraint string
	Input      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("fitness: invalid %s (%s): %q", e.Field, e.Constraint, e.Input)
}

// InputLen reports the rejected input's length in runes.
func (e *ValidationError) InputLen() int {
	return utf8.RuneCountInString(e.Input)
}

// ValidateName checks a display name against the profile limits.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < NameMinLen || n > NameMaxLen {
		return &ValidationError{
			Field:      "name",
			Constraint: fmt.Sprintf("%d-%d characters", NameMinLen, NameMaxLen),
			Input:      name,
		}
	}
	return nil
}

// ValidateGoalName checks a goal title against the goal limits.
func ValidateGoalName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < GoalNameMinLen || n > GoalNameMaxLen {
		return &ValidationError{
			Field:      "goal name",
			Constraint: fmt.Sprintf("%d-%d characters", GoalNameMinLen, GoalNameMaxLen),
			Input:      name,
		}
	}
	return nil
}

// ValidateTarget checks a goal target value.
func ValidateTarget(raw string, target int, ok bool) error {
	if !ok || target < TargetMin || target > TargetMax {
		return &ValidationError{
			Field:      "target",
			Constraint: fmt.Sprintf("integer %d-%d", TargetMin, TargetMax),
			Input:      raw,
		}
	}
	return nil
}

// ValidateAmount checks a progress increment. Any positive integer is
// accepted; clamping to the goal target happens at render time.
func ValidateAmount(raw string, amount int, ok bool) error {
	if !ok || amount <= 0 {
		return &ValidationError{
			Field:      "amount",
			Constraint: "positive integer",
			Input:      raw,
		}
	}
	return nil
}

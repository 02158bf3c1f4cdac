package session

// Payload carries the data a multi-step dialog has collected so far. Each
// state expects one concrete payload shape; a mismatch means the session was
// started by an older dialog and must be treated as stale.
type Payload interface {
	payload()
}

// GoalNameDraft follows the goal-name step: the title is set, the target is
// being asked for.
type GoalNameDraft struct {
	Name string
}

// GoalTargetDraft follows the target step: title and target are set, the
// goal type is being asked for.
type GoalTargetDraft struct {
	Name   string
	Target int
}

// ProgressDraft identifies the goal a member is reporting progress on.
type ProgressDraft struct {
	GoalID   int64
	GoalName string
}

func (GoalNameDraft) payload()   {}
func (GoalTargetDraft) payload() {}
func (ProgressDraft) payload()   {}

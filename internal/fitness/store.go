package fitness

import (
	"context"
	"time"
)

// Store is the persistence boundary of the domain. The production
// implementation lives in internal/repository on top of Postgres; tests use
// in-memory fakes.
type Store interface {
	// GetUser returns the active profile for userID, or ErrNotFound.
	GetUser(ctx context.Context, userID int64) (*User, error)
	// CreateUser inserts a profile, reactivating a soft-deleted one.
	CreateUser(ctx context.Context, u User) error
	// RenameUser updates the display name of an active profile.
	RenameUser(ctx context.Context, userID int64, name string) error
	// SetNotifications flips the reminder flag.
	SetNotifications(ctx context.Context, userID int64, on bool) error
	// DeactivateUser soft-deletes the profile and purges every progress
	// row the user ever recorded, in one transaction.
	DeactivateUser(ctx context.Context, userID int64) error
	// ActiveUsers lists active profiles ordered by join time.
	ActiveUsers(ctx context.Context) ([]User, error)

	// CreateGoal inserts a goal and returns its id.
	CreateGoal(ctx context.Context, g Goal) (int64, error)
	// GetGoal returns an active goal, or ErrNotFound.
	GetGoal(ctx context.Context, goalID int64) (*Goal, error)
	// ActiveGoals lists the chat's active goals ordered by creation.
	ActiveGoals(ctx context.Context, chatID int64) ([]Goal, error)
	// DeactivateGoal soft-deletes a goal. Progress rows are kept.
	DeactivateGoal(ctx context.Context, goalID int64) error

	// AddProgress atomically adds amount to the (user, goal, day) cell
	// and returns the cell's new value.
	AddProgress(ctx context.Context, userID, goalID int64, day time.Time, amount int) (int, error)
	// DayTotals returns per-day sums and participant counts for the
	// chat's goals over [from, to] inclusive. Days with no rows are
	// absent; callers zero-fill.
	DayTotals(ctx context.Context, chatID int64, from, to time.Time) ([]DayTotal, error)
	// DayCells cross-joins the chat's active goals with active users for
	// one day, with zero values where no progress row exists.
	DayCells(ctx context.Context, chatID int64, day time.Time) ([]DayCell, error)
	// UserTotals summarises one user's recorded progress.
	UserTotals(ctx context.Context, userID int64, today time.Time) (UserTotals, error)
	// DeleteProgress removes one user's progress rows within [from, to].
	// A nil bound is open-ended.
	DeleteProgress(ctx context.Context, userID int64, from, to *time.Time) error

	// LogActivity appends one audit row.
	LogActivity(ctx context.Context, a Activity) error
	// RecentActivities returns the newest rows for the chat, newest first.
	RecentActivities(ctx context.Context, chatID int64, limit int) ([]Activity, error)

	// MenuMessageID returns the pinned menu message id for the chat, or 0.
	MenuMessageID(ctx context.Context, chatID int64) (int, error)
	// SetMenuMessageID upserts the pinned menu pointer.
	SetMenuMessageID(ctx context.Context, chatID int64, messageID int) error
	// ClearMenuMessage drops the pointer so the next refresh sends anew.
	ClearMenuMessage(ctx context.Context, chatID int64) error
}

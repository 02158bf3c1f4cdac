// Package fitness holds the domain model of the group fitness tracker:
// members, shared goals, daily progress rows, and the aggregations
// rendered into the chat menu.
package fitness

import "time"

// GoalType distinguishes daily targets from monthly ones.
type GoalType string

const (
	// GoalDaily means the target applies to every calendar day.
	GoalDaily GoalType = "daily"
	// GoalMonthly means the target applies to a calendar month.
	GoalMonthly GoalType = "monthly"
)

// Limits on user-entered values, enforced by the conversation flows.
const (
	NameMinLen     = 1
	NameMaxLen     = 20
	GoalNameMinLen = 1
	GoalNameMaxLen = 30
	TargetMin      = 1
	TargetMax      = 10000
)

// User is a registered chat member. Profiles are soft-deleted: Active flips
// to false and the user's progress rows are purged.
type User struct {
	ID            int64     `db:"user_id"`
	Name          string    `db:"name"`
	JoinedAt      time.Time `db:"joined_at"`
	Notifications bool      `db:"notifications"`
	Active        bool      `db:"is_active"`
}

// Goal is a shared target owned by a chat. Goals are immutable once created
// except for the active flag; progress rows survive goal deletion.
type Goal struct {
	ID        int64     `db:"goal_id"`
	ChatID    int64     `db:"chat_id"`
	Name      string    `db:"name"`
	Target    int       `db:"target"`
	Type      GoalType  `db:"goal_type"`
	CreatedBy int64     `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	Active    bool      `db:"is_active"`
}

// Activity is one append-only audit row shown in the recent-actions feed.
type Activity struct {
	ID        int64     `db:"activity_id"`
	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`
	UserName  string    `db:"user_name"`
	Action    string    `db:"action"`
	Details   string    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

// DayTotal is one day of the weekly rollup: the summed progress across all
// of the chat's goals plus how many distinct members contributed.
type DayTotal struct {
	Day          time.Time `db:"day"`
	Total        int       `db:"total"`
	Participants int       `db:"participants"`
}

// DayCell is one (goal, user) cell of the day-detail cross-join. Missing
// progress rows surface as Value 0 so completion ratios stay honest.
type DayCell struct {
	GoalID   int64  `db:"goal_id"`
	GoalName string `db:"goal_name"`
	Target   int    `db:"target"`
	UserID   int64  `db:"user_id"`
	UserName string `db:"user_name"`
	Value    int    `db:"value"`
}

// UserTotals summarises one member's personal history for the settings card.
type UserTotals struct {
	ActiveDays int
	TodayTotal int
	Total      int
}

// ResetKind selects the date range wiped by a progress reset.
type ResetKind string

const (
	ResetToday ResetKind = "today"
	ResetWeek  ResetKind = "week"
	ResetAll   ResetKind = "all"
)

// Date truncates t to its calendar date in loc, normalised to midnight UTC
// so values compare and map cleanly regardless of the wall-clock zone.
func Date(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing day.
func WeekStart(day time.Time) time.Time {
	wd := int(day.Weekday())
	if wd == 0 { // Sunday
		wd = 7
	}
	return day.AddDate(0, 0, -(wd - 1))
}

package fitness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sovanasrala/fitgroup-bot/core/logger"
)

// Service implements the tracker's operations on top of a Store. All writes
// follow the same order: validate, persist, then append an audit row; audit
// failures are logged and swallowed so they never undo a persisted change.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
	loc   *time.Location
}

// NewService wires a Service. loc fixes the calendar used for day and week
// boundaries; now is injectable for tests.
func NewService(store Store, loc *time.Location, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, log: logger.SVCGoals, now: now, loc: loc}
}

// Today returns the current calendar date in the service's zone.
func (s *Service) Today() time.Time { return Date(s.now(), s.loc) }

// WeekOf returns the Monday of the week containing day.
func (s *Service) WeekOf(day time.Time) time.Time { return WeekStart(day) }

// Register creates an active profile. The name must already be validated by
// the conversation layer; it is re-checked here as a last line of defence.
func (s *Service) Register(ctx context.Context, chatID, userID int64, name string) (*User, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, userID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}
	u := User{ID: userID, Name: name, JoinedAt: s.now(), Notifications: true, Active: true}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCUsers, slog.LevelInfo, "user.registered",
		slog.String("name", logger.SanitizeLimit(name, 32)))
	s.audit(ctx, chatID, userID, "регистрация", name)
	return &u, nil
}

// Rename changes the display name of an active profile.
func (s *Service) Rename(ctx context.Context, chatID, userID int64, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.store.RenameUser(ctx, userID, name); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	s.audit(ctx, chatID, userID, "смена имени", name)
	return nil
}

// CreateGoal adds a shared goal to the chat.
func (s *Service) CreateGoal(ctx context.Context, chatID, userID int64, name string, target int, typ GoalType) (*Goal, error) {
	if err := ValidateGoalName(name); err != nil {
		return nil, err
	}
	if target < TargetMin || target > TargetMax {
		return nil, &ValidationError{Field: "target", Constraint: fmt.Sprintf("integer %d-%d", TargetMin, TargetMax), Input: fmt.Sprint(target)}
	}
	g := Goal{ChatID: chatID, Name: name, Target: target, Type: typ, CreatedBy: userID, CreatedAt: s.now(), Active: true}
	id, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	g.ID = id
	s.audit(ctx, chatID, userID, "новая цель", fmt.Sprintf("%s (%d)", name, target))
	return &g, nil
}

// DeleteGoal soft-deletes a goal. Recorded progress is intentionally kept so
// history and statistics stay intact.
func (s *Service) DeleteGoal(ctx context.Context, chatID, userID, goalID int64) error {
	g, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if err := s.store.DeactivateGoal(ctx, goalID); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	s.audit(ctx, chatID, userID, "удаление цели", g.Name)
	return nil
}

// AddResult reports the outcome of a progress increment.
type AddResult struct {
	Goal     *Goal
	NewValue int
	Percent  int
}

// AddProgress atomically adds amount to today's cell for (user, goal) and
// returns the new total with its clamped completion percentage.
func (s *Service) AddProgress(ctx context.Context, chatID, userID, goalID int64, amount int) (*AddResult, error) {
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Constraint: "positive integer", Input: fmt.Sprint(amount)}
	}
	g, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	val, err := s.store.AddProgress(ctx, userID, goalID, s.Today(), amount)
	if err != nil {
		return nil, fmt.Errorf("add progress: %w", err)
	}
	s.audit(ctx, chatID, userID, "прогресс", fmt.Sprintf("%s +%d", g.Name, amount))
	return &AddResult{Goal: g, NewValue: val, Percent: Percent(val, g.Target)}, nil
}

// ToggleNotifications flips the reminder flag and returns the new state.
func (s *Service) ToggleNotifications(ctx context.Context, userID int64) (bool, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if err := s.store.SetNotifications(ctx, userID, !u.Notifications); err != nil {
		return false, fmt.Errorf("toggle notifications: %w", err)
	}
	return !u.Notifications, nil
}

// DeleteProfile soft-deletes the user and purges all of their progress.
func (s *Service) DeleteProfile(ctx context.Context, chatID, userID int64) error {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.store.DeactivateUser(ctx, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	s.audit(ctx, chatID, userID, "удаление профиля", u.Name)
	return nil
}

// ResetProgress wipes the caller's own progress rows over the range the
// kind selects. Other members' records stay intact.
func (s *Service) ResetProgress(ctx context.Context, chatID, userID int64, kind ResetKind) error {
	today := s.Today()
	var from, to *time.Time
	switch kind {
	case ResetToday:
		from, to = &today, &today
	case ResetWeek:
		ws := WeekStart(today)
		from, to = &ws, &today
	case ResetAll:
	default:
		return fmt.Errorf("reset progress: unknown kind %q", kind)
	}
	if err := s.store.DeleteProgress(ctx, userID, from, to); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	s.audit(ctx, chatID, userID, "сброс прогресса", string(kind))
	return nil
}

// Overview is everything the main menu renders.
type Overview struct {
	Users      []User
	Goals      []Goal
	Today      []GoalDay
	Activities []Activity
}

// Overview collects the chat's current state for rendering.
func (s *Service) Overview(ctx context.Context, chatID int64) (*Overview, error) {
	users, err := s.store.ActiveUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	goals, err := s.store.ActiveGoals(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	cells, err := s.store.DayCells(ctx, chatID, s.Today())
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	acts, err := s.store.RecentActivities(ctx, chatID, 5)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	return &Overview{Users: users, Goals: goals, Today: GroupDayCells(cells), Activities: acts}, nil
}

// WeekStats builds the weekly rollup for the week starting at start.
func (s *Service) WeekStats(ctx context.Context, chatID int64, start time.Time) (*Week, error) {
	end := start.AddDate(0, 0, 6)
	totals, err := s.store.DayTotals(ctx, chatID, start, end)
	if err != nil {
		return nil, fmt.Errorf("week stats: %w", err)
	}
	goals, err := s.store.ActiveGoals(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("week stats: %w", err)
	}
	users, err := s.store.ActiveUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("week stats: %w", err)
	}
	w := BuildWeek(start, totals, MaxPerDay(goals, len(users)))
	logger.LogEvent(ctx, logger.SVCStats, slog.LevelDebug, "stats.week_built",
		slog.String("week_start", start.Format("2006-01-02")),
		slog.Int("max_per_day", w.MaxPerDay))
	return &w, nil
}

// DayStats builds the per-goal breakdown for one day.
func (s *Service) DayStats(ctx context.Context, chatID int64, day time.Time) ([]GoalDay, error) {
	cells, err := s.store.DayCells(ctx, chatID, day)
	if err != nil {
		return nil, fmt.Errorf("day stats: %w", err)
	}
	return GroupDayCells(cells), nil
}

// UserSummary returns a member's profile with personal totals for the
// settings card.
func (s *Service) UserSummary(ctx context.Context, userID int64) (*User, UserTotals, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, UserTotals{}, err
	}
	t, err := s.store.UserTotals(ctx, userID, s.Today())
	if err != nil {
		return nil, UserTotals{}, fmt.Errorf("user summary: %w", err)
	}
	return u, t, nil
}

// GetUser exposes profile lookup to the conversation layer.
func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.store.GetUser(ctx, userID)
}

// ActiveGoals exposes goal listing to the conversation layer.
func (s *Service) ActiveGoals(ctx context.Context, chatID int64) ([]Goal, error) {
	return s.store.ActiveGoals(ctx, chatID)
}

// GetGoal exposes goal lookup to the conversation layer.
func (s *Service) GetGoal(ctx context.Context, goalID int64) (*Goal, error) {
	return s.store.GetGoal(ctx, goalID)
}

func (s *Service) audit(ctx context.Context, chatID, userID int64, action, details string) {
	a := Activity{ChatID: chatID, UserID: userID, Action: action, Details: details, CreatedAt: s.now()}
	if err := s.store.LogActivity(ctx, a); err != nil {
		logger.LogEvent(ctx, s.log, slog.LevelWarn, "activity.log_failed",
			slog.String("action", action), logger.ErrAttr(err))
	}
}

// Package repository implements fitness.Store on Postgres via sqlx.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sovanasrala/fitgroup-bot/core/logger"
	"github.com/sovanasrala/fitgroup-bot/internal/fitness"
)

const dateLayout = "2006-01-02"

// Repository is the sqlx-backed fitness.Store.
type Repository struct {
	db  *sqlx.DB
	log *slog.Logger
}

var _ fitness.Store = (*Repository)(nil)

// New wires a Repository over an open connection pool.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db, log: logger.DB}
}

func (r *Repository) GetUser(ctx context.Context, userID int64) (*fitness.User, error) {
	var u fitness.User
	err := r.db.GetContext(ctx, &u, `
		SELECT user_id, name, joined_at, notifications, is_active
		FROM users
		WHERE user_id = $1 AND is_active`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fitness.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u fitness.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, name, joined_at, notifications, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name,
		    joined_at = EXCLUDED.joined_at,
		    notifications = EXCLUDED.notifications,
		    is_active = TRUE`,
		u.ID, u.Name, u.JoinedAt, u.Notifications)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) RenameUser(ctx context.Context, userID int64, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $2 WHERE user_id = $1 AND is_active`, userID, name)
	if err != nil {
		return fmt.Errorf("rename user: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) SetNotifications(ctx context.Context, userID int64, on bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET notifications = $2 WHERE user_id = $1 AND is_active`, userID, on)
	if err != nil {
		return fmt.Errorf("set notifications: %w", err)
	}
	return requireRow(res)
}

// DeactivateUser runs the soft delete and the progress purge in one
// transaction so a crash can't leave a ghost profile with live rows.
func (r *Repository) DeactivateUser(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET is_active = FALSE WHERE user_id = $1 AND is_active`, userID)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_progress WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("purge progress: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	logger.LogEvent(ctx, r.log, slog.LevelInfo, "user.deactivated",
		slog.Int64("target_user_id", userID))
	return nil
}

func (r *Repository) ActiveUsers(ctx context.Context) ([]fitness.User, error) {
	var out []fitness.User
	err := r.db.SelectContext(ctx, &out, `
		SELECT user_id, name, joined_at, notifications, is_active
		FROM users
		WHERE is_active
		ORDER BY joined_at, user_id`)
	if err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}
	return out, nil
}

func (r *Repository) CreateGoal(ctx context.Context, g fitness.Goal) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO goals (chat_id, name, target, goal_type, created_by, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING goal_id`,
		g.ChatID, g.Name, g.Target, g.Type, g.CreatedBy, g.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("create goal: %w", err)
	}
	return id, nil
}

func (r *Repository) GetGoal(ctx context.Context, goalID int64) (*fitness.Goal, error) {
	var g fitness.Goal
	err := r.db.GetContext(ctx, &g, `
		SELECT goal_id, chat_id, name, target, goal_type, created_by, created_at, is_active
		FROM goals
		WHERE goal_id = $1 AND is_active`, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fitness.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return &g, nil
}

func (r *Repository) ActiveGoals(ctx context.Context, chatID int64) ([]fitness.Goal, error) {
	var out []fitness.Goal
	err := r.db.SelectContext(ctx, &out, `
		SELECT goal_id, chat_id, name, target, goal_type, created_by, created_at, is_active
		FROM goals
		WHERE chat_id = $1 AND is_active
		ORDER BY goal_id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("active goals: %w", err)
	}
	return out, nil
}

func (r *Repository) DeactivateGoal(ctx context.Context, goalID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET is_active = FALSE WHERE goal_id = $1 AND is_active`, goalID)
	if err != nil {
		return fmt.Errorf("deactivate goal: %w", err)
	}
	return requireRow(res)
}

// AddProgress is a single upsert so concurrent increments can't lose
// updates: the addition happens inside the statement.
func (r *Repository) AddProgress(ctx context.Context, userID, goalID int64, day time.Time, amount int) (int, error) {
	var value int
	err := r.db.GetContext(ctx, &value, `
		INSERT INTO user_progress (user_id, goal_id, day, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, goal_id, day) DO UPDATE
		SET value = user_progress.value + EXCLUDED.value
		RETURNING value`,
		userID, goalID, day.Format(dateLayout), amount)
	if err != nil {
		return 0, fmt.Errorf("add progress: %w", err)
	}
	return value, nil
}

func (r *Repository) DayTotals(ctx context.Context, chatID int64, from, to time.Time) ([]fitness.DayTotal, error) {
	var out []fitness.DayTotal
	err := r.db.SelectContext(ctx, &out, `
		SELECT p.day, SUM(p.value) AS total, COUNT(DISTINCT p.user_id) AS participants
		FROM user_progress p
		JOIN goals g ON g.goal_id = p.goal_id
		WHERE g.chat_id = $1 AND p.day BETWEEN $2 AND $3
		GROUP BY p.day
		ORDER BY p.day`,
		chatID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("day totals: %w", err)
	}
	return out, nil
}

func (r *Repository) DayCells(ctx context.Context, chatID int64, day time.Time) ([]fitness.DayCell, error) {
	var out []fitness.DayCell
	err := r.db.SelectContext(ctx, &out, `
		SELECT g.goal_id,
		       g.name AS goal_name,
		       g.target,
		       u.user_id,
		       u.name AS user_name,
		       COALESCE(p.value, 0) AS value
		FROM goals g
		CROSS JOIN users u
		LEFT JOIN user_progress p
		  ON p.goal_id = g.goal_id AND p.user_id = u.user_id AND p.day = $2
		WHERE g.chat_id = $1 AND g.is_active AND u.is_active
		ORDER BY g.goal_id, u.joined_at, u.user_id`,
		chatID, day.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("day cells: %w", err)
	}
	return out, nil
}

func (r *Repository) UserTotals(ctx context.Context, userID int64, today time.Time) (fitness.UserTotals, error) {
	var row struct {
		Total      int `db:"total"`
		ActiveDays int `db:"active_days"`
		Today      int `db:"today"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT COALESCE(SUM(value), 0) AS total,
		       COUNT(DISTINCT day) AS active_days,
		       COALESCE(SUM(value) FILTER (WHERE day = $2), 0) AS today
		FROM user_progress
		WHERE user_id = $1`,
		userID, today.Format(dateLayout))
	if err != nil {
		return fitness.UserTotals{}, fmt.Errorf("user totals: %w", err)
	}
	return fitness.UserTotals{ActiveDays: row.ActiveDays, TodayTotal: row.Today, Total: row.Total}, nil
}

func (r *Repository) DeleteProgress(ctx context.Context, userID int64, from, to *time.Time) error {
	q := `DELETE FROM user_progress WHERE user_id = $1`
	args := []any{userID}
	if from != nil {
		args = append(args, from.Format(dateLayout))
		q += fmt.Sprintf(" AND day >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.Format(dateLayout))
		q += fmt.Sprintf(" AND day <= $%d", len(args))
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		logger.LogEvent(ctx, r.log, slog.LevelInfo, "progress.reset",
			slog.Int64("user_id", userID), slog.Int64("rows", n))
	}
	return nil
}

func (r *Repository) LogActivity(ctx context.Context, a fitness.Activity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (chat_id, user_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ChatID, a.UserID, a.Action, a.Details, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

func (r *Repository) RecentActivities(ctx context.Context, chatID int64, limit int) ([]fitness.Activity, error) {
	var out []fitness.Activity
	err := r.db.SelectContext(ctx, &out, `
		SELECT a.activity_id, a.chat_id, a.user_id,
		       COALESCE(u.name, '') AS user_name,
		       a.action, a.details, a.created_at
		FROM activities a
		LEFT JOIN users u ON u.user_id = a.user_id
		WHERE a.chat_id = $1
		ORDER BY a.activity_id DESC
		LIMIT $2`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activities: %w", err)
	}
	return out, nil
}

func (r *Repository) MenuMessageID(ctx context.Context, chatID int64) (int, error) {
	var id int
	err := r.db.GetContext(ctx, &id,
		`SELECT message_id FROM chat_menu WHERE chat_id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("menu message id: %w", err)
	}
	return id, nil
}

func (r *Repository) SetMenuMessageID(ctx context.Context, chatID int64, messageID int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_menu (chat_id, message_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (chat_id) DO UPDATE
		SET message_id = EXCLUDED.message_id, updated_at = NOW()`,
		chatID, messageID)
	if err != nil {
		return fmt.Errorf("set menu message id: %w", err)
	}
	return nil
}

func (r *Repository) ClearMenuMessage(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_menu WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("clear menu message: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fitness.ErrNotFound
	}
	return nil
}

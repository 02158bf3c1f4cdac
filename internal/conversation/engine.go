// Package conversation implements the dialog engine: it owns callback
// dispatch and multi-step text dialogs, and is the only writer of session
// state. Transport details stay behind the View and Responder interfaces.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sovanasrala/fitgroup-bot/core/logger"
	"github.com/sovanasrala/fitgroup-bot/internal/fitness"
	"github.com/sovanasrala/fitgroup-bot/internal/session"
)

// Pick tells the goal picker what the selection is for.
type Pick string

const (
	// PickProgress lists goals for recording progress.
	PickProgress Pick = "progress"
	// PickDelete lists goals for deletion.
	PickDelete Pick = "delete"
)

// View renders screens into the chat. The bot layer implements it over the
// pinned menu message; tests implement it with recorders.
type View interface {
	// RefreshMenu redraws the main menu, editing the pinned message or
	// sending a fresh one if the pointer is gone.
	RefreshMenu(ctx context.Context, chatID int64) error
	// ShowStats renders the weekly statistics page (0 = current week).
	ShowStats(ctx context.Context, chatID int64, page int) error
	// ShowDay renders one day's per-goal breakdown.
	ShowDay(ctx context.Context, chatID int64, day time.Time) error
	// ShowSettings renders the member's settings card.
	ShowSettings(ctx context.Context, chatID, userID int64) error
	// ShowResetMenu renders the destructive-actions submenu.
	ShowResetMenu(ctx context.Context, chatID int64) error
	// ShowHelp renders the help card.
	ShowHelp(ctx context.Context, chatID int64) error
	// ShowGoalPicker renders a goal list whose buttons continue the flow
	// pick names.
	ShowGoalPicker(ctx context.Context, chatID int64, goals []fitness.Goal, pick Pick) error
	// ShowGoalTypePicker asks whether the drafted goal is daily or monthly.
	ShowGoalTypePicker(ctx context.Context, chatID int64, name string, target int) error
	// ShowDeleteConfirm asks for confirmation before deleting a goal.
	ShowDeleteConfirm(ctx context.Context, chatID int64, g *fitness.Goal) error
	// ShowDeleteProfileConfirm asks for confirmation before deleting the
	// member's profile.
	ShowDeleteProfileConfirm(ctx context.Context, chatID, userID int64) error
	// Prompt sends a dialog prompt with a cancel button.
	Prompt(ctx context.Context, chatID int64, text string) error
	// Notice sends a short transient message.
	Notice(ctx context.Context, chatID int64, text string) error
}

// Responder answers the callback query that triggered a handler.
type Responder interface {
	// Popup shows an alert to the pressing user only.
	Popup(text string) error
}

// Engine drives the conversation state machine. Every entry point runs
// under the chat's serialization lock, so one chat's updates are handled
// strictly in order.
type Engine struct {
	svc      *fitness.Service
	sessions *session.Manager
	view     View
	log      *slog.Logger

	handlers map[string]func(*cbReq) error
}

type cbReq struct {
	ctx     context.Context
	chatID  int64
	userID  int64
	payload string
	r       Responder
	sess    *session.Session // the pressing user's own session, if any
}

// New wires an Engine.
func New(svc *fitness.Service, sessions *session.Manager, view View) *Engine {
	e := &Engine{
		svc:      svc,
		sessions: sessions,
		view:     view,
		log:      logger.Component("dialog"),
	}
	e.handlers = map[string]func(*cbReq) error{
		ActCreateProfile:        e.cbCreateProfile,
		ActAddGoal:              e.cbAddGoal,
		ActMarkProgress:         e.cbMarkProgress,
		ActSelectGoal:           e.cbSelectGoal,
		ActGoalDaily:            e.cbGoalType(fitness.GoalDaily),
		ActGoalMonthly:          e.cbGoalType(fitness.GoalMonthly),
		ActStatistics:           e.cbStats(0),
		ActStatsToday:           e.cbStats(0),
		ActStatsPrev:            e.cbStatsPage,
		ActStatsNext:            e.cbStatsPage,
		ActStatsBack:            e.cbMainMenu,
		ActStatsDay:             e.cbStatsDay,
		ActSettings:             e.cbSettings,
		ActChangeName:           e.cbChangeName,
		ActToggle:               e.cbToggle,
		ActResetMenu:            e.cbResetMenu,
		ActResetToday:           e.cbReset(fitness.ResetToday),
		ActResetWeek:            e.cbReset(fitness.ResetWeek),
		ActResetAll:             e.cbReset(fitness.ResetAll),
		ActDeleteProfile:        e.cbDeleteProfile,
		ActConfirmDeleteProfile: e.cbConfirmDeleteProfile,
		ActDeleteGoal:           e.cbDeleteGoal,
		ActConfirmDelete:        e.cbConfirmDelete,
		ActExecuteDelete:        e.cbExecuteDelete,
		ActHelp:                 e.cbHelp,
		ActCancel:               e.cbCancel,
		ActMainMenu:             e.cbMainMenu,
		ActNoop:                 func(*cbReq) error { return nil },
	}
	return e
}

// Actions lists every callback key the engine handles, for registration.
func (e *Engine) Actions() []string {
	out := make([]string, 0, len(e.handlers))
	for k := range e.handlers {
		out = append(out, k)
	}
	return out
}

// HandleText feeds a plain group message into the active dialog. It reports
// whether the message was consumed; unconsumed messages fall through to the
// router's fallback. Messages starting with "/" are never consumed.
func (e *Engine) HandleText(ctx context.Context, chatID, userID int64, text string) (bool, error) {
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return false, nil
	}
	var (
		handled bool
		err     error
	)
	_ = e.sessions.WithChat(chatID, func() error {
		handled, err = e.handleTextLocked(ctx, chatID, userID, text)
		return nil
	})
	return handled, err
}

func (e *Engine) handleTextLocked(ctx context.Context, chatID, userID int64, text string) (bool, error) {
	s, ok := e.sessions.Get(chatID)
	if !ok {
		return false, nil
	}
	if s.UserID != userID {
		// Someone else's dialog holds the chat; tell the writer to wait.
		e.notice(ctx, chatID, txtConflict)
		return true, session.ErrConflict
	}

	text = strings.TrimSpace(text)
	switch s.State {
	case session.StateWaitingName:
		return true, e.textName(ctx, chatID, userID, text, false)
	case session.StateWaitingNewName:
		return true, e.textName(ctx, chatID, userID, text, true)
	case session.StateWaitingGoalName:
		return true, e.textGoalName(ctx, chatID, text)
	case session.StateWaitingGoalTarget:
		return true, e.textGoalTarget(ctx, chatID, text, s)
	case session.StateWaitingAmount:
		return true, e.textAmount(ctx, chatID, userID, text, s)
	case session.StateWaitingGoalType:
		// The type is chosen with buttons; free text is ignored.
		return true, nil
	default:
		e.sessions.Clear(chatID)
		return true, fmt.Errorf("dialog: unknown state %q", s.State)
	}
}

func (e *Engine) textName(ctx context.Context, chatID, userID int64, text string, rename bool) error {
	if err := fitness.ValidateName(text); err != nil {
		// Re-prompt in place. The session is untouched so the TTL
		// keeps counting from the dialog start.
		return e.view.Prompt(ctx, chatID, badName(text))
	}
	if rename {
		if err := e.svc.Rename(ctx, chatID, userID, text); err != nil {
			return e.dialogFailure(ctx, chatID, err)
		}
		e.sessions.Clear(chatID)
		e.notice(ctx, chatID, doneRenamed(text))
		return e.view.RefreshMenu(ctx, chatID)
	}
	_, err := e.svc.Register(ctx, chatID, userID, text)
	if errors.Is(err, fitness.ErrAlreadyRegistered) {
		e.sessions.Clear(chatID)
		e.notice(ctx, chatID, txtAlreadyHave)
		return e.view.RefreshMenu(ctx, chatID)
	}
	if err != nil {
		return e.dialogFailure(ctx, chatID, err)
	}
	e.sessions.Clear(chatID)
	e.notice(ctx, chatID, doneRegistered(text))
	return e.view.RefreshMenu(ctx, chatID)
}

func (e *Engine) textGoalName(ctx context.Context, chatID int64, text string) error {
	if err := fitness.ValidateGoalName(text); err != nil {
		return e.view.Prompt(ctx, chatID, badGoalName(text))
	}
	e.sessions.Advance(chatID, session.StateWaitingGoalTarget, session.GoalNameDraft{Name: text})
	return e.view.Prompt(ctx, chatID, txtPromptGoalTarget)
}

func (e *Engine) textGoalTarget(ctx context.Context, chatID int64, text string, s session.Session) error {
	draft, ok := s.Payload.(session.GoalNameDraft)
	if !ok {
		return e.stale(ctx, chatID)
	}
	n, convErr := strconv.Atoi(text)
	if err := fitness.ValidateTarget(text, n, convErr == nil); err != nil {
		return e.view.Prompt(ctx, chatID, badTarget(text))
	}
	e.sessions.Advance(chatID, session.StateWaitingGoalType, session.GoalTargetDraft{Name: draft.Name, Target: n})
	return e.view.ShowGoalTypePicker(ctx, chatID, draft.Name, n)
}

func (e *Engine) textAmount(ctx context.Context, chatID, userID int64, text string, s session.Session) error {
	draft, ok := s.Payload.(session.ProgressDraft)
	if !ok {
		return e.stale(ctx, chatID)
	}
	n, convErr := strconv.Atoi(text)
	if err := fitness.ValidateAmount(text, n, convErr == nil); err != nil {
		return e.view.Prompt(ctx, chatID, badAmount(text))
	}
	res, err := e.svc.AddProgress(ctx, chatID, userID, draft.GoalID, n)
	if errors.Is(err, fitness.ErrNotFound) {
		return e.stale(ctx, chatID)
	}
	if err != nil {
		return e.dialogFailure(ctx, chatID, err)
	}
	e.sessions.Clear(chatID)
	e.notice(ctx, chatID, doneProgress(res.Goal.Name, n, res.NewValue, res.Percent))
	return e.view.RefreshMenu(ctx, chatID)
}

// HandleCallback dispatches one inline-button press.
func (e *Engine) HandleCallback(ctx context.Context, chatID, userID int64, action, payload string, r Responder) error {
	h := e.handlers[action]
	if h == nil {
		return fmt.Errorf("dialog: unknown action %q", action)
	}
	var err error
	_ = e.sessions.WithChat(chatID, func() error {
		err = e.handleCallbackLocked(ctx, chatID, userID, action, payload, r, h)
		return nil
	})
	return err
}

func (e *Engine) handleCallbackLocked(ctx context.Context, chatID, userID int64, action, payload string, r Responder, h func(*cbReq) error) error {
	req := &cbReq{ctx: ctx, chatID: chatID, userID: userID, payload: payload, r: r}
	if s, ok := e.sessions.Get(chatID); ok {
		if s.UserID != userID && action != ActNoop {
			return r.Popup(txtConflict)
		}
		if s.UserID == userID {
			req.sess = &s
			// The goal-type buttons are part of the running dialog;
			// any other press abandons it.
			if action != ActGoalDaily && action != ActGoalMonthly {
				e.sessions.Clear(chatID)
			}
		}
	}
	logger.LogEvent(ctx, e.log, slog.LevelDebug, "dialog.callback",
		slog.String("action", action))
	return h(req)
}

func (e *Engine) cbCreateProfile(req *cbReq) error {
	if _, err := e.svc.GetUser(req.ctx, req.userID); err == nil {
		return req.r.Popup(txtAlreadyHave)
	} else if !errors.Is(err, fitness.ErrNotFound) {
		return err
	}
	e.sessions.Start(req.chatID, req.userID, session.StateWaitingName, nil)
	return e.view.Prompt(req.ctx, req.chatID, txtPromptName)
}

func (e *Engine) cbAddGoal(req *cbReq) error {
	if ok, err := e.requireUser(req); !ok {
		return err
	}
	e.sessions.Start(req.chatID, req.userID, session.StateWaitingGoalName, nil)
	return e.view.Prompt(req.ctx, req.chatID, txtPromptGoalName)
}

func (e *Engine) cbMarkProgress(req *cbReq) error {
	if ok, err := e.requireUser(req); !ok {
		return err
	}
	goals, err := e.svc.ActiveGoals(req.ctx, req.chatID)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		return req.r.Popup(txtNoGoals)
	}
	return e.view.ShowGoalPicker(req.ctx, req.chatID, goals, PickProgress)
}

func (e *Engine) cbSelectGoal(req *cbReq) error {
	if ok, err := e.requireUser(req); !ok {
		return err
	}
	goalID, err := strconv.ParseInt(req.payload, 10, 64)
	if err != nil {
		return e.staleCallback(req)
	}
	g, err := e.svc.GetGoal(req.ctx, goalID)
	if errors.Is(err, fitness.ErrNotFound) {
		return e.staleCallback(req)
	}
	if err != nil {
		return err
	}
	e.sessions.Start(req.chatID, req.userID, session.StateWaitingAmount,
		session.ProgressDraft{GoalID: g.ID, GoalName: g.Name})
	return e.view.Prompt(req.ctx, req.chatID, promptAmount(g.Name))
}

func (e *Engine) cbGoalType(typ fitness.GoalType) func(*cbReq) error {
	return func(req *cbReq) error {
		if req.sess == nil || req.sess.State != session.StateWaitingGoalType {
			return e.staleCallback(req)
		}
		draft, ok := req.sess.Payload.(session.GoalTargetDraft)
		if !ok {
			return e.staleCallback(req)
		}
		g, err := e.svc.CreateGoal(req.ctx, req.chatID, req.userID, draft.Name, draft.Target, typ)
		if err != nil {
			return err
		}
		e.sessions.Clear(req.chatID)
		e.notice(req.ctx, req.chatID, doneGoalCreated(g.Name, g.Target))
		return e.view.RefreshMenu(req.ctx, req.chatID)
	}
}

func (e *Engine) cbStats(page int) func(*cbReq) error {
	return func(req *cbReq) error {
		return e.view.ShowStats(req.ctx, req.chatID, page)
	}
}

// cbStatsPage jumps to the page named in the payload, clamped to the
// reachable window. Both nav arrows use it; the renderer bakes the target
// page into each button.
func (e *Engine) cbStatsPage(req *cbReq) error {
	page, _ := strconv.Atoi(req.payload)
	if page < 0 {
		page = 0
	}
	if page > StatsPages-1 {
		page = StatsPages - 1
	}
	return e.view.ShowStats(req.ctx, req.chatID, page)
}

func (e *Engine) cbStatsDay(req *cbReq) error {
	day, err := time.Parse("2006-01-02", req.payload)
	if err != nil {
		return e.staleCallback(req)
	}
	return e.view.ShowDay(req.ctx, req.chatID, day)
}

func (e *Engine) cbSettings(req *cbReq) error {
	if ok, err := e.requireUser(req); !ok {
		return err
	}
	return e.view.ShowSettings(req.ctx, req.chatID, req.userID)
}

func (e *Engine) cbChangeName(req *cbReq) error {
	if ok, err := e.requireUser(req); !ok {
		return err
	}
	e.sessions.Start(req.chatID, req.userID, session.StateWaitingNewName, nil)
	return e.view.Prompt(req.ctx, req.chatID, txtPromptNewName)
}

func (e *Engine) cbToggle(req *cbReq) error {
	if ok, err := e.requireUser(req); !ok {
		return err
	}
	on, err := e.svc.ToggleNotifications(req.ctx, req.userID)
	if err != nil {
		return err
	}
	if on {
		_ = req.r.Popup(txtNotifyOn)
	} else {
		_ = req.r.Popup(txtNotifyOff)
	}
	return e.view.ShowSettings(req.ctx, req.chatID, req.userID)
}

func (e *Engine) cbResetMenu(req *cbReq) error {
	if ok, err := e.requireUser(req); !ok {
		return err
	}
	return e.view.ShowResetMenu(req.ctx, req.chatID)
}

func (e *Engine) cbReset(kind fitness.ResetKind) func(*cbReq) error {
	return func(req *cbReq) error {
		if ok, err := e.requireUser(req); !ok {
			return err
		}
		if err := e.svc.ResetProgress(req.ctx, req.chatID, req.userID, kind); err != nil {
			return err
		}
		_ = req.r.Popup(txtResetDone)
		return e.view.RefreshMenu(req.ctx, req.chatID)
	}
}

func (e *Engine) cbDeleteProfile(req *cbReq) error {
	if ok, err := e.requireUser(req); !ok {
		return err
	}
	return e.view.ShowDeleteProfileConfirm(req.ctx, req.chatID, req.userID)
}

func (e *Engine) cbConfirmDeleteProfile(req *cbReq) error {
	err := e.svc.DeleteProfile(req.ctx, req.chatID, req.userID)
	if errors.Is(err, fitness.ErrNotFound) {
		return e.staleCallback(req)
	}
	if err != nil {
		return err
	}
	_ = req.r.Popup(txtUserDeleted)
	return e.view.RefreshMenu(req.ctx, req.chatID)
}

func (e *Engine) cbDeleteGoal(req *cbReq) error {
	if ok, err := e.requireUser(req); !ok {
		return err
	}
	goals, err := e.svc.ActiveGoals(req.ctx, req.chatID)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		return req.r.Popup(txtNoGoals)
	}
	return e.view.ShowGoalPicker(req.ctx, req.chatID, goals, PickDelete)
}

func (e *Engine) cbConfirmDelete(req *cbReq) error {
	goalID, err := strconv.ParseInt(req.payload, 10, 64)
	if err != nil {
		return e.staleCallback(req)
	}
	g, err := e.svc.GetGoal(req.ctx, goalID)
	if errors.Is(err, fitness.ErrNotFound) {
		return e.staleCallback(req)
	}
	if err != nil {
		return err
	}
	return e.view.ShowDeleteConfirm(req.ctx, req.chatID, g)
}

func (e *Engine) cbExecuteDelete(req *cbReq) error {
	goalID, err := strconv.ParseInt(req.payload, 10, 64)
	if err != nil {
		return e.staleCallback(req)
	}
	err = e.svc.DeleteGoal(req.ctx, req.chatID, req.userID, goalID)
	if errors.Is(err, fitness.ErrNotFound) {
		return e.staleCallback(req)
	}
	if err != nil {
		return err
	}
	_ = req.r.Popup(txtGoalDeleted)
	return e.view.RefreshMenu(req.ctx, req.chatID)
}

func (e *Engine) cbHelp(req *cbReq) error {
	return e.view.ShowHelp(req.ctx, req.chatID)
}

func (e *Engine) cbCancel(req *cbReq) error {
	// The pre-dispatch gate already cleared the presser's own dialog.
	e.sessions.Clear(req.chatID)
	_ = req.r.Popup(txtCancelled)
	return e.view.RefreshMenu(req.ctx, req.chatID)
}

func (e *Engine) cbMainMenu(req *cbReq) error {
	return e.view.RefreshMenu(req.ctx, req.chatID)
}

// requireUser popups a hint and reports false when the presser has no
// active profile.
func (e *Engine) requireUser(req *cbReq) (bool, error) {
	_, err := e.svc.GetUser(req.ctx, req.userID)
	if errors.Is(err, fitness.ErrNotFound) {
		return false, req.r.Popup(txtNeedProfile)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// dialogFailure keeps the session so the member can retry after a storage
// hiccup, tells the chat something went wrong, and surfaces the error to
// the router for logging.
func (e *Engine) dialogFailure(ctx context.Context, chatID int64, err error) error {
	e.notice(ctx, chatID, "⚠️ Не получилось сохранить, попробуйте ещё раз.")
	return err
}

func (e *Engine) stale(ctx context.Context, chatID int64) error {
	e.sessions.Clear(chatID)
	e.notice(ctx, chatID, txtStale)
	if err := e.view.RefreshMenu(ctx, chatID); err != nil {
		return err
	}
	return session.ErrStale
}

// staleCallback is the button-press flavour of stale: popup instead of a
// notice, then back to the idle menu.
func (e *Engine) staleCallback(req *cbReq) error {
	e.sessions.Clear(req.chatID)
	_ = req.r.Popup(txtStale)
	if err := e.view.RefreshMenu(req.ctx, req.chatID); err != nil {
		return err
	}
	return session.ErrStale
}

func (e *Engine) notice(ctx context.Context, chatID int64, text string) {
	if err := e.view.Notice(ctx, chatID, text); err != nil {
		logger.LogEvent(ctx, e.log, slog.LevelWarn, "dialog.notice_failed", logger.ErrAttr(err))
	}
}

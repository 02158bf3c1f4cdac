package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/sovanasrala/fitgroup-bot/core/logger"
	"github.com/sovanasrala/fitgroup-bot/internal/conversation"
	"github.com/sovanasrala/fitgroup-bot/internal/fitness"
	"github.com/sovanasrala/fitgroup-bot/internal/menu"
)

// View renders screens into the chat over the pinned menu message: every
// screen edits the same message, falling back to a fresh send when the
// stored pointer is gone. It implements conversation.View.
type View struct {
	bot    atomic.Pointer[tele.Bot]
	render *menu.Renderer
	store  fitness.Store
	log    *slog.Logger
}

var _ conversation.View = (*View)(nil)

// NewView wires a View. The transport is attached later via SetBot, once
// the bot is built.
func NewView(render *menu.Renderer, store fitness.Store) *View {
	return &View{render: render, store: store, log: logger.TG}
}

// SetBot attaches the transport.
func (v *View) SetBot(b *tele.Bot) { v.bot.Store(b) }

func (v *View) RefreshMenu(ctx context.Context, chatID int64) error {
	s, err := v.render.MainMenu(ctx, chatID)
	if err != nil {
		return err
	}
	return v.ensure(ctx, chatID, s)
}

func (v *View) ShowStats(ctx context.Context, chatID int64, page int) error {
	s, err := v.render.Stats(ctx, chatID, page)
	if err != nil {
		return err
	}
	return v.ensure(ctx, chatID, s)
}

func (v *View) ShowDay(ctx context.Context, chatID int64, day time.Time) error {
	s, err := v.render.Day(ctx, chatID, day)
	if err != nil {
		return err
	}
	return v.ensure(ctx, chatID, s)
}

func (v *View) ShowSettings(ctx context.Context, chatID, userID int64) error {
	s, err := v.render.Settings(ctx, chatID, userID)
	if err != nil {
		return err
	}
	return v.ensure(ctx, chatID, s)
}

func (v *View) ShowResetMenu(ctx context.Context, chatID int64) error {
	return v.ensure(ctx, chatID, v.render.ResetMenu())
}

// Repin drops the stored menu pointer and redraws, so the menu lands at the
// bottom of the chat even when the old message is still editable.
func (v *View) Repin(ctx context.Context, chatID int64) error {
	if err := v.store.ClearMenuMessage(ctx, chatID); err != nil {
		return err
	}
	return v.RefreshMenu(ctx, chatID)
}

func (v *View) ShowHelp(ctx context.Context, chatID int64) error {
	return v.ensure(ctx, chatID, v.render.Help())
}

func (v *View) ShowGoalPicker(ctx context.Context, chatID int64, goals []fitness.Goal, pick conversation.Pick) error {
	return v.ensure(ctx, chatID, v.render.GoalPicker(goals, pick))
}

func (v *View) ShowGoalTypePicker(ctx context.Context, chatID int64, name string, target int) error {
	return v.ensure(ctx, chatID, v.render.GoalTypePicker(name, target))
}

func (v *View) ShowDeleteConfirm(ctx context.Context, chatID int64, g *fitness.Goal) error {
	return v.ensure(ctx, chatID, v.render.DeleteGoalConfirm(g))
}

func (v *View) ShowDeleteProfileConfirm(ctx context.Context, chatID, _ int64) error {
	return v.ensure(ctx, chatID, v.render.DeleteProfileConfirm())
}

// Prompt sends a dialog question as its own message so the pinned menu
// stays visible while the member types.
func (v *View) Prompt(ctx context.Context, chatID int64, text string) error {
	b := v.bot.Load()
	if b == nil {
		return errTransportDown
	}
	_, err := b.Send(tele.ChatID(chatID), text, &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: v.render.PromptMarkup(),
	})
	return err
}

func (v *View) Notice(ctx context.Context, chatID int64, text string) error {
	b := v.bot.Load()
	if b == nil {
		return errTransportDown
	}
	_, err := b.Send(tele.ChatID(chatID), text, &tele.SendOptions{ParseMode: tele.ModeHTML})
	return err
}

var errTransportDown = errors.New("bot: transport not attached")

// ensure edits the pinned menu message or sends a fresh one and stores the
// new pointer.
func (v *View) ensure(ctx context.Context, chatID int64, s menu.Screen) error {
	b := v.bot.Load()
	if b == nil {
		return errTransportDown
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: s.Markup}

	msgID, err := v.store.MenuMessageID(ctx, chatID)
	if err != nil {
		return err
	}
	if msgID != 0 {
		ref := &tele.StoredMessage{MessageID: strconv.Itoa(msgID), ChatID: chatID}
		_, err := b.Edit(ref, s.Text, opts)
		if err == nil || isNotModified(err) {
			return nil
		}
		// The stored message is gone or not editable; send a new one.
		logger.LogEvent(ctx, v.log, slog.LevelDebug, "menu.edit_failed", logger.ErrAttr(err))
	}

	m, err := b.Send(tele.ChatID(chatID), s.Text, opts)
	if err != nil {
		return err
	}
	return v.store.SetMenuMessageID(ctx, chatID, m.ID)
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

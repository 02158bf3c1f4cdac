// Package bot assembles the application: it binds the conversation engine
// to the Telegram transport, registers commands and callbacks, and exposes
// the run options the runtime needs.
package bot

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/sovanasrala/fitgroup-bot/core/config"
	coretelegram "github.com/sovanasrala/fitgroup-bot/core/telegram"
	"github.com/sovanasrala/fitgroup-bot/core/telegram/callbacks"
	"github.com/sovanasrala/fitgroup-bot/core/telegram/commands"
	tghelpers "github.com/sovanasrala/fitgroup-bot/core/telegram/helpers"
	"github.com/sovanasrala/fitgroup-bot/core/telegram/router"
	tgsender "github.com/sovanasrala/fitgroup-bot/core/telegram/sender"
	"github.com/sovanasrala/fitgroup-bot/internal/conversation"
	"github.com/sovanasrala/fitgroup-bot/internal/fitness"
	"github.com/sovanasrala/fitgroup-bot/internal/menu"
	"github.com/sovanasrala/fitgroup-bot/internal/repository"
	"github.com/sovanasrala/fitgroup-bot/internal/session"
)

// App wires every layer of the bot.
type App struct {
	cfg      *coreconfig.Config
	view     *View
	engine   *conversation.Engine
	sessions *session.Manager
	reg      *coretelegram.Registry
}

// New builds the application graph on top of an open database pool.
func New(cfg *coreconfig.Config, db *sqlx.DB) (*App, error) {
	repo := repository.New(db)
	loc := time.FixedZone("chat", cfg.Time.UTCOffsetHours*3600)
	svc := fitness.NewService(repo, loc, nil)
	sessions := session.NewManager(time.Duration(cfg.Session.TTLSeconds)*time.Second, nil)
	render := menu.NewRenderer(svc)
	view := NewView(render, repo)

	a := &App{
		cfg:      cfg,
		view:     view,
		engine:   conversation.New(svc, sessions, view),
		sessions: sessions,
		reg:      coretelegram.NewRegistry(),
	}
	a.registerCommands()
	a.registerCallbacks()
	return a, nil
}

func (a *App) registerCommands() {
	a.reg.RegisterCommand("/start", commands.Command{
		Description: "Показать меню",
		Handler: func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "cmd.start")
			tghelpers.DeleteInbound(c)
			chatID := c.Chat().ID
			// Commands touch the menu pointer too, so they take the same
			// per-chat lock as engine-driven updates.
			return a.sessions.WithChat(chatID, func() error {
				return a.view.Repin(ctx, chatID)
			})
		},
		Aliases: []string{"/menu"},
	})
	a.reg.RegisterCommand("/stats", commands.Command{
		Description: "Статистика недели",
		Handler: func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "cmd.stats")
			tghelpers.DeleteInbound(c)
			chatID := c.Chat().ID
			return a.sessions.WithChat(chatID, func() error {
				return a.view.ShowStats(ctx, chatID, 0)
			})
		},
	})
	a.reg.RegisterCommand("/help", commands.Command{
		Description: "Как пользоваться ботом",
		Handler: func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "cmd.help")
			tghelpers.DeleteInbound(c)
			chatID := c.Chat().ID
			return a.sessions.WithChat(chatID, func() error {
				return a.view.ShowHelp(ctx, chatID)
			})
		},
	})
}

func (a *App) registerCallbacks() {
	for _, action := range a.engine.Actions() {
		action := action
		_ = a.reg.RegisterCallback(action, func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "callback."+action)
			err := a.engine.HandleCallback(ctx, c.Chat().ID, c.Sender().ID,
				action, callbacks.Payload(c), responder{c: c})
			// Plain ack stops the button spinner when no popup was shown;
			// an already-answered error here is harmless.
			_ = c.Respond()
			if errors.Is(err, session.ErrConflict) || errors.Is(err, session.ErrStale) {
				return nil
			}
			return err
		})
	}
}

// textHandler feeds plain messages into the dialog engine. Consumed inputs
// are deleted so dialogs don't clutter the group. Conflict and stale
// outcomes are expected chat behaviour, not handler failures.
func (a *App) textHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	handled, err := a.engine.HandleText(ctx, c.Chat().ID, c.Sender().ID, c.Text())
	if handled {
		tghelpers.DeleteInbound(c)
	}
	if errors.Is(err, session.ErrConflict) || errors.Is(err, session.ErrStale) {
		return nil
	}
	return err
}

// responder answers the pressing user via callback popups.
type responder struct {
	c tele.Context
}

func (r responder) Popup(text string) error {
	return r.c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
}

// TelegramRunOptions exposes the app to the shared bot runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:            a.cfg,
		Registry:          a.reg,
		DispatcherOptions: tgsender.Options{},
		Middlewares:       coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes: []coretelegram.Route{
			router.TextRoute(a.textHandler, a.reg, router.TextOptions{}),
			router.CallbackRoute(a.reg, router.CallbackOptions{}),
		},
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.view.SetBot(rt.Bot)
			return nil
		},
	}, nil
}

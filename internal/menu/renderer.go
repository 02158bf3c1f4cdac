// Package menu renders every screen of the chat interface: the pinned main
// menu, statistics pages, and the dialog keyboards. All output is HTML.
package menu

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/sovanasrala/fitgroup-bot/core/telegram/keyboard"
	"github.com/sovanasrala/fitgroup-bot/internal/conversation"
	"github.com/sovanasrala/fitgroup-bot/internal/fitness"
)

const frameLine = "━━━━━━━━━━━━━━━━━"

// Screen is one rendered view: HTML text plus its inline keyboard.
type Screen struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// Renderer builds screens from service data.
type Renderer struct {
	svc *fitness.Service
}

// NewRenderer wires a Renderer.
func NewRenderer(svc *fitness.Service) *Renderer {
	return &Renderer{svc: svc}
}

// MainMenu renders the pinned menu: today's bars per goal and member, the
// recent-actions feed, and the action keyboard.
func (r *Renderer) MainMenu(ctx context.Context, chatID int64) (Screen, error) {
	ov, err := r.svc.Overview(ctx, chatID)
	if err != nil {
		return Screen{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏆 <b>ФитКоманда</b>\n📅 %s\n", FormatDate(r.svc.Today()))

	if len(ov.Users) == 0 {
		b.WriteString("\nПока никто не зарегистрирован.\nСоздайте профиль и добавьте первую цель!")
		return Screen{
			Text: b.String(),
			Markup: keyboard.InlineButtons([]keyboard.InlineBtn{
				{Text: "👤 Создать профиль", Unique: conversation.ActCreateProfile},
				{Text: "❓ Помощь", Unique: conversation.ActHelp},
			}),
		}, nil
	}

	if len(ov.Goals) == 0 {
		b.WriteString("\nЦелей пока нет. Добавьте первую!\n")
	}
	for _, gd := range ov.Today {
		b.WriteString("\n┏" + frameLine + "┓\n")
		fmt.Fprintf(&b, "┃ 🎯 <b>%s</b> — %d %s\n",
			html.EscapeString(gd.Name), gd.Target, goalTypeLabel(goalType(ov.Goals, gd.GoalID)))
		for _, e := range gd.Entries {
			fmt.Fprintf(&b, "┃ %s\n┃ %s %d%% (%d)\n",
				html.EscapeString(e.Name), Bar(e.Percent), e.Percent, e.Value)
		}
		b.WriteString("┗" + frameLine + "┛\n")
	}

	if len(ov.Activities) > 0 {
		b.WriteString("\n🕐 <b>Последние действия:</b>\n")
		for _, a := range ov.Activities {
			name := a.UserName
			if name == "" {
				name = "кто-то"
			}
			fmt.Fprintf(&b, "• %s — %s", html.EscapeString(name), html.EscapeString(a.Action))
			if a.Details != "" {
				fmt.Fprintf(&b, ": %s", html.EscapeString(a.Details))
			}
			b.WriteString("\n")
		}
	}

	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "✅ Отметить", Unique: conversation.ActMarkProgress},
			{Text: "➕ Цель", Unique: conversation.ActAddGoal},
		},
		[]keyboard.InlineBtn{
			{Text: "📊 Статистика", Unique: conversation.ActStatistics},
			{Text: "⚙️ Настройки", Unique: conversation.ActSettings},
		},
		[]keyboard.InlineBtn{
			{Text: "👤 Профиль", Unique: conversation.ActCreateProfile},
			{Text: "❓ Помощь", Unique: conversation.ActHelp},
		},
	)
	return Screen{Text: b.String(), Markup: markup}, nil
}

// Stats renders one week page. Page 0 is the current week; older weeks are
// reached through the nav arrows, which carry the target page.
func (r *Renderer) Stats(ctx context.Context, chatID int64, page int) (Screen, error) {
	start := fitness.WeekStart(r.svc.Today()).AddDate(0, 0, -7*page)
	w, err := r.svc.WeekStats(ctx, chatID, start)
	if err != nil {
		return Screen{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Статистика</b>\n🗓 %s\n\n", FormatWeekRange(start))
	for _, d := range w.Days {
		fmt.Fprintf(&b, "%s %02d: %s %d%%", WeekdayShort(d.Day), d.Day.Day(), SmallBar(d.Percent), d.Percent)
		if d.Total > 0 {
			fmt.Fprintf(&b, " — %d (%d чел.)", d.Total, d.Participants)
		}
		b.WriteString("\n")
	}
	if w.MaxPerDay > 0 {
		fmt.Fprintf(&b, "\nМаксимум за день: %d\n", w.MaxPerDay)
	}

	today := r.svc.Today()
	dayBtns := make([]keyboard.InlineBtn, 0, 7)
	for _, d := range w.Days {
		btn := keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s %d", WeekdayShort(d.Day), d.Day.Day()),
			Unique: conversation.ActStatsDay,
			Data:   d.Day.Format("2006-01-02"),
		}
		// Days that have not happened yet are not clickable.
		if d.Day.After(today) {
			btn = keyboard.InlineBtn{Text: "·", Unique: conversation.ActNoop}
		}
		dayBtns = append(dayBtns, btn)
	}
	rows := [][]keyboard.InlineBtn{
		dayBtns[:4],
		dayBtns[4:],
		{
			{Text: "⬅️", Unique: conversation.ActStatsPrev, Data: fmt.Sprint(page + 1)},
			{Text: "Сегодня", Unique: conversation.ActStatsToday},
			{Text: "➡️", Unique: conversation.ActStatsNext, Data: fmt.Sprint(page - 1)},
		},
		{{Text: "🏠 Меню", Unique: conversation.ActStatsBack}},
	}
	return Screen{Text: b.String(), Markup: keyboard.InlineButtonsRows(rows...)}, nil
}

// Day renders the per-goal breakdown of one day.
func (r *Renderer) Day(ctx context.Context, chatID int64, day time.Time) (Screen, error) {
	groups, err := r.svc.DayStats(ctx, chatID, day)
	if err != nil {
		return Screen{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>%s</b>\n", FormatDateShort(day))
	if len(groups) == 0 {
		b.WriteString("\nНет данных за этот день.\n")
	}
	for _, g := range groups {
		fmt.Fprintf(&b, "\n🎯 <b>%s</b> (%d)\n", html.EscapeString(g.Name), g.Target)
		for _, e := range g.Entries {
			fmt.Fprintf(&b, "%s %d%% %s — %d\n",
				SmallBar(e.Percent), e.Percent, html.EscapeString(e.Name), e.Value)
		}
	}

	page := weeksBack(r.svc.Today(), day)
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "⬅️ Назад", Unique: conversation.ActStatsPrev, Data: fmt.Sprint(page)},
		{Text: "🏠 Меню", Unique: conversation.ActStatsBack},
	})
	return Screen{Text: b.String(), Markup: markup}, nil
}

// Settings renders the member's settings card.
func (r *Renderer) Settings(ctx context.Context, chatID, userID int64) (Screen, error) {
	u, totals, err := r.svc.UserSummary(ctx, userID)
	if err != nil {
		return Screen{}, err
	}

	notif := "🔕 выключены"
	if u.Notifications {
		notif = "🔔 включены"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⚙️ <b>Настройки</b>\n\n")
	fmt.Fprintf(&b, "👤 Имя: <b>%s</b>\n", html.EscapeString(u.Name))
	fmt.Fprintf(&b, "📅 В команде с %s\n", FormatDateShort(u.JoinedAt))
	fmt.Fprintf(&b, "Напоминания: %s\n\n", notif)
	fmt.Fprintf(&b, "Сегодня: %d\nАктивных дней: %d\nВсего отмечено: %d\n",
		totals.TodayTotal, totals.ActiveDays, totals.Total)

	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "✏️ Имя", Unique: conversation.ActChangeName},
			{Text: "🔔 Напоминания", Unique: conversation.ActToggle},
		},
		[]keyboard.InlineBtn{
			{Text: "🔄 Сброс", Unique: conversation.ActResetMenu},
			{Text: "🗑 Удалить цель", Unique: conversation.ActDeleteGoal},
		},
		[]keyboard.InlineBtn{
			{Text: "🏠 Меню", Unique: conversation.ActMainMenu},
		},
	)
	return Screen{Text: b.String(), Markup: markup}, nil
}

// ResetMenu renders the destructive-actions submenu.
func (r *Renderer) ResetMenu() Screen {
	text := "🔄 <b>Сброс прогресса</b>\n\n⚠️ Действие необратимо. Выберите, что сбросить:"
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "🗑 Только сегодня", Unique: conversation.ActResetToday}},
		[]keyboard.InlineBtn{{Text: "🗑 Всю неделю", Unique: conversation.ActResetWeek}},
		[]keyboard.InlineBtn{{Text: "🗑 Весь прогресс", Unique: conversation.ActResetAll}},
		[]keyboard.InlineBtn{{Text: "🗑 Удалить профиль", Unique: conversation.ActDeleteProfile}},
		[]keyboard.InlineBtn{{Text: "❌ Отмена", Unique: conversation.ActCancel}},
	)
	return Screen{Text: text, Markup: markup}
}

// Help renders the static help card.
func (r *Renderer) Help() Screen {
	text := strings.Join([]string{
		"❓ <b>Как это работает</b>",
		"",
		"1. Создайте профиль — он общий для этого чата.",
		"2. Добавьте цель: название, число и тип (в день или в месяц).",
		"3. Отмечайте прогресс — проценты и полоски обновятся в меню.",
		"4. В статистике видно всю неделю и каждый день отдельно.",
		"",
		"Удаление цели сохраняет историю, удаление профиля стирает её.",
	}, "\n")
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "🏠 Меню", Unique: conversation.ActMainMenu},
	})
	return Screen{Text: text, Markup: markup}
}

// GoalPicker renders the goal list used by both the progress and the delete
// flows.
func (r *Renderer) GoalPicker(goals []fitness.Goal, pick conversation.Pick) Screen {
	title := "✅ По какой цели отметить прогресс?"
	unique := conversation.ActSelectGoal
	if pick == conversation.PickDelete {
		title = "🗑 Какую цель удалить?"
		unique = conversation.ActConfirmDelete
	}
	btns := make([]keyboard.InlineBtn, 0, len(goals)+1)
	for _, g := range goals {
		btns = append(btns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s (%d)", g.Name, g.Target),
			Unique: unique,
			Data:   fmt.Sprint(g.ID),
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: "❌ ОТМЕНА", Unique: conversation.ActCancel})
	return Screen{Text: title, Markup: keyboard.InlineButtons(btns)}
}

// GoalTypePicker renders the daily/monthly choice of the goal dialog.
func (r *Renderer) GoalTypePicker(name string, target int) Screen {
	text := fmt.Sprintf("🎯 Цель «%s» на %d.\nКак считать цель?", html.EscapeString(name), target)
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "📆 В день", Unique: conversation.ActGoalDaily},
			{Text: "🗓 В месяц", Unique: conversation.ActGoalMonthly},
		},
		[]keyboard.InlineBtn{{Text: "❌ ОТМЕНА", Unique: conversation.ActCancel}},
	)
	return Screen{Text: text, Markup: markup}
}

// DeleteGoalConfirm renders the goal deletion confirmation.
func (r *Renderer) DeleteGoalConfirm(g *fitness.Goal) Screen {
	text := fmt.Sprintf("🗑 Удалить цель «%s»?\nИстория прогресса сохранится.", html.EscapeString(g.Name))
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "✅ Удалить", Unique: conversation.ActExecuteDelete, Data: fmt.Sprint(g.ID)},
			{Text: "❌ ОТМЕНА", Unique: conversation.ActCancel},
		},
	)
	return Screen{Text: text, Markup: markup}
}

// DeleteProfileConfirm renders the profile deletion confirmation.
func (r *Renderer) DeleteProfileConfirm() Screen {
	text := "❌ Удалить профиль?\nВесь ваш прогресс будет стёрт безвозвратно."
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "✅ Да, удалить", Unique: conversation.ActConfirmDeleteProfile},
			{Text: "❌ ОТМЕНА", Unique: conversation.ActCancel},
		},
	)
	return Screen{Text: text, Markup: markup}
}

// PromptMarkup is the cancel-only keyboard attached to dialog prompts.
func (r *Renderer) PromptMarkup() *tele.ReplyMarkup {
	return keyboard.SingleCancelMarkup(conversation.ActCancel)
}

func goalType(goals []fitness.Goal, goalID int64) fitness.GoalType {
	for _, g := range goals {
		if g.ID == goalID {
			return g.Type
		}
	}
	return fitness.GoalDaily
}

func goalTypeLabel(t fitness.GoalType) string {
	if t == fitness.GoalMonthly {
		return "в месяц"
	}
	return "в день"
}

func weeksBack(today, day time.Time) int {
	n := int(fitness.WeekStart(today).Sub(fitness.WeekStart(day)).Hours() / 24 / 7)
	if n < 0 {
		n = 0
	}
	if n > conversation.StatsPages-1 {
		n = conversation.StatsPages - 1
	}
	return n
}

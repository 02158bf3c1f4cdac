package menu

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sovanasrala/fitgroup-bot/internal/conversation"
	"github.com/sovanasrala/fitgroup-bot/internal/fitness"
)

func TestBars(t *testing.T) {
	require.Equal(t, "░░░░░░░░░░", Bar(0))
	require.Equal(t, "█████░░░░░", Bar(50))
	require.Equal(t, "██████████", Bar(100))
	require.Equal(t, "██████████", Bar(150), "clamps above 100")
	require.Equal(t, "░░░░░░░░░░", Bar(-5), "clamps below 0")
	require.Equal(t, "████░░░░░░", Bar(49), "floors partial cells")
	require.Equal(t, "▰▰▰▰▰▰▰▱▱▱", SmallBar(75))
}

func TestRussianDates(t *testing.T) {
	wed := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "26 августа, среда", FormatDate(wed))
	require.Equal(t, "26 августа", FormatDateShort(wed))
	require.Equal(t, "Ср", WeekdayShort(wed))

	require.Equal(t, "24–30 августа", FormatWeekRange(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "31 августа – 6 сентября", FormatWeekRange(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)))
}

func TestWeeksBack(t *testing.T) {
	today := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 0, weeksBack(today, today))
	require.Equal(t, 0, weeksBack(today, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 1, weeksBack(today, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)), "Sunday before belongs to the previous week")
	require.Equal(t, 3, weeksBack(today, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)), "clamped to the stats window")
	require.Equal(t, 0, weeksBack(today, today.AddDate(0, 0, 7)), "future days clamp to the current week")
}

func TestGoalPickerTargets(t *testing.T) {
	r := NewRenderer(nil)
	goals := []fitness.Goal{{ID: 3, Name: "Бег", Target: 5}, {ID: 8, Name: "Отжимания", Target: 50}}

	s := r.GoalPicker(goals, conversation.PickProgress)
	require.Len(t, s.Markup.InlineKeyboard, 3, "two goals plus cancel")
	require.Contains(t, s.Markup.InlineKeyboard[0][0].Unique, conversation.ActSelectGoal)
	require.Equal(t, "3", s.Markup.InlineKeyboard[0][0].Data)

	s = r.GoalPicker(goals, conversation.PickDelete)
	require.Contains(t, s.Markup.InlineKeyboard[1][0].Unique, conversation.ActConfirmDelete)
	require.Equal(t, "8", s.Markup.InlineKeyboard[1][0].Data)
}

func TestScreensEscapeHTML(t *testing.T) {
	r := NewRenderer(nil)
	g := &fitness.Goal{ID: 1, Name: "<b>хак</b>", Target: 5}
	s := r.DeleteGoalConfirm(g)
	require.NotContains(t, s.Text, "<b>хак</b>")
	require.Contains(t, s.Text, "&lt;b&gt;")

	s = r.GoalTypePicker("a & b", 10)
	require.Contains(t, s.Text, "a &amp; b")
	require.True(t, strings.Contains(s.Text, "10"))
}

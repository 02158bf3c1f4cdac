package fitness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	require.Equal(t, 0, Percent(10, 0), "zero target")
	require.Equal(t, 0, Percent(10, -5), "negative target")
	require.Equal(t, 0, Percent(0, 10))
	require.Equal(t, 40, Percent(20, 50))
	require.Equal(t, 33, Percent(1, 3), "floors, never rounds up")
	require.Equal(t, 100, Percent(60, 50), "clamped at 100")
	require.Equal(t, 100, Percent(50, 50))
}

func TestWeekStartMonday(t *testing.T) {
	// 2026-08-26 is a Wednesday.
	wed := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), WeekStart(wed))

	sun := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), WeekStart(sun), "Sunday belongs to the preceding Monday")

	mon := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	require.Equal(t, mon, WeekStart(mon))
}

func TestDateUsesLocation(t *testing.T) {
	msk := time.FixedZone("MSK", 3*3600)
	// 23:30 UTC is already the next day in Moscow.
	late := time.Date(2026, 8, 24, 23, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), Date(late, msk))
	require.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), Date(late, time.UTC))
}

func TestBuildWeekZeroFills(t *testing.T) {
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC) // Monday
	totals := []DayTotal{
		{Day: start, Total: 10, Participants: 1},
		{Day: start.AddDate(0, 0, 2), Total: 15, Participants: 2},
		{Day: start.AddDate(0, 0, 9), Total: 99, Participants: 9}, // outside the window
	}
	// One daily goal of 10, two members: ceiling 20 per day.
	w := BuildWeek(start, totals, 20)

	require.Equal(t, start, w.Days[0].Day)
	require.Equal(t, 10, w.Days[0].Total)
	require.Equal(t, 50, w.Days[0].Percent)

	require.Equal(t, 15, w.Days[2].Total)
	require.Equal(t, 2, w.Days[2].Participants)
	require.Equal(t, 75, w.Days[2].Percent)

	for _, i := range []int{1, 3, 4, 5, 6} {
		require.Zero(t, w.Days[i].Total, "day %d", i)
		require.Zero(t, w.Days[i].Percent, "day %d", i)
	}
}

func TestMaxPerDayCountsEveryActiveGoal(t *testing.T) {
	goals := []Goal{
		{Target: 50, Type: GoalDaily},
		{Target: 30, Type: GoalDaily},
		{Target: 1000, Type: GoalMonthly},
	}
	require.Equal(t, 3240, MaxPerDay(goals, 3), "monthly targets count too")
	require.Equal(t, 0, MaxPerDay(goals, 0))
	require.Equal(t, 0, MaxPerDay(nil, 5))
}

func TestGroupDayCells(t *testing.T) {
	cells := []DayCell{
		{GoalID: 1, GoalName: "Отжимания", Target: 50, UserID: 10, UserName: "Анна", Value: 20},
		{GoalID: 1, GoalName: "Отжимания", Target: 50, UserID: 11, UserName: "Борис", Value: 0},
		{GoalID: 2, GoalName: "Бег", Target: 5, UserID: 10, UserName: "Анна", Value: 7},
		{GoalID: 2, GoalName: "Бег", Target: 5, UserID: 11, UserName: "Борис", Value: 0},
	}
	days := GroupDayCells(cells)
	require.Len(t, days, 2)

	require.Equal(t, "Отжимания", days[0].Name)
	require.Len(t, days[0].Entries, 2)
	require.Equal(t, 40, days[0].Entries[0].Percent)
	require.Equal(t, 0, days[0].Entries[1].Percent)

	require.Equal(t, "Бег", days[1].Name)
	require.Equal(t, 100, days[1].Entries[0].Percent, "over-target clamps")
}

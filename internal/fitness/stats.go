package fitness

import "time"

// Percent converts a progress value into a whole completion percentage,
// floored and clamped to 100. A non-positive target always yields 0.
func Percent(value, target int) int {
	if target <= 0 {
		return 0
	}
	if value <= 0 {
		return 0
	}
	p := value * 100 / target
	if p > 100 {
		p = 100
	}
	return p
}

// WeekDay is one zero-filled day of a weekly summary.
type WeekDay struct {
	Day          time.Time
	Total        int
	Participants int
	Percent      int
}

// Week is a Monday-to-Sunday summary with a shared per-day ceiling.
type Week struct {
	Start     time.Time
	Days      [7]WeekDay
	MaxPerDay int
}

// MaxPerDay is the chat's theoretical daily ceiling: the sum of every active
// goal's target multiplied by the number of active members.
func MaxPerDay(goals []Goal, activeUsers int) int {
	sum := 0
	for _, g := range goals {
		sum += g.Target
	}
	return sum * activeUsers
}

// BuildWeek spreads sparse day totals over a full Monday-start week,
// zero-filling missing days and computing each day's percentage against
// maxPerDay.
func BuildWeek(start time.Time, totals []DayTotal, maxPerDay int) Week {
	w := Week{Start: start, MaxPerDay: maxPerDay}
	for i := range w.Days {
		w.Days[i].Day = start.AddDate(0, 0, i)
	}
	for _, t := range totals {
		i := int(Date(t.Day, time.UTC).Sub(start).Hours() / 24)
		if i < 0 || i > 6 {
			continue
		}
		w.Days[i].Total = t.Total
		w.Days[i].Participants = t.Participants
	}
	for i := range w.Days {
		w.Days[i].Percent = Percent(w.Days[i].Total, maxPerDay)
	}
	return w
}

// UserEntry is one member's row within a goal's day breakdown.
type UserEntry struct {
	UserID  int64
	Name    string
	Value   int
	Percent int
}

// GoalDay is one goal's breakdown for a single day.
type GoalDay struct {
	GoalID  int64
	Name    string
	Target  int
	Entries []UserEntry
}

// GroupDayCells folds the flat cross-join rows into per-goal groups,
// preserving the store's goal and user ordering.
func GroupDayCells(cells []DayCell) []GoalDay {
	var out []GoalDay
	idx := map[int64]int{}
	for _, c := range cells {
		i, ok := idx[c.GoalID]
		if !ok {
			i = len(out)
			idx[c.GoalID] = i
			out = append(out, GoalDay{GoalID: c.GoalID, Name: c.GoalName, Target: c.Target})
		}
		out[i].Entries = append(out[i].Entries, UserEntry{
			UserID:  c.UserID,
			Name:    c.UserName,
			Value:   c.Value,
			Percent: Percent(c.Value, c.Target),
		})
	}
	return out
}

// Package fitnesstest provides an in-memory Store for unit tests.
package fitnesstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sovanasrala/fitgroup-bot/internal/fitness"
)

type progressKey struct {
	UserID int64
	GoalID int64
	Day    string
}

// MemStore is a map-backed fitness.Store. Setting Err makes every call fail
// with it, which is how tests simulate storage outages.
type MemStore struct {
	mu sync.Mutex

	Err error

	Users      map[int64]fitness.User
	Goals      map[int64]fitness.Goal
	Progress   map[progressKey]int
	Activities []fitness.Activity
	Menus      map[int64]int

	nextGoalID int64
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		Users:    map[int64]fitness.User{},
		Goals:    map[int64]fitness.Goal{},
		Progress: map[progressKey]int{},
		Menus:    map[int64]int{},
	}
}

func dayKey(d time.Time) string { return d.Format("2006-01-02") }

func (m *MemStore) GetUser(_ context.Context, userID int64) (*fitness.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.Users[userID]
	if !ok || !u.Active {
		return nil, fitness.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (m *MemStore) CreateUser(_ context.Context, u fitness.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Users[u.ID] = u
	return nil
}

func (m *MemStore) RenameUser(_ context.Context, userID int64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.Users[userID]
	if !ok || !u.Active {
		return fitness.ErrNotFound
	}
	u.Name = name
	m.Users[userID] = u
	return nil
}

func (m *MemStore) SetNotifications(_ context.Context, userID int64, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.Users[userID]
	if !ok || !u.Active {
		return fitness.ErrNotFound
	}
	u.Notifications = on
	m.Users[userID] = u
	return nil
}

func (m *MemStore) DeactivateUser(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.Users[userID]
	if !ok || !u.Active {
		return fitness.ErrNotFound
	}
	u.Active = false
	m.Users[userID] = u
	for k := range m.Progress {
		if k.UserID == userID {
			delete(m.Progress, k)
		}
	}
	return nil
}

func (m *MemStore) ActiveUsers(_ context.Context) ([]fitness.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []fitness.User
	for _, u := range m.Users {
		if u.Active {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) CreateGoal(_ context.Context, g fitness.Goal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.nextGoalID++
	g.ID = m.nextGoalID
	m.Goals[g.ID] = g
	return g.ID, nil
}

func (m *MemStore) GetGoal(_ context.Context, goalID int64) (*fitness.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	g, ok := m.Goals[goalID]
	if !ok || !g.Active {
		return nil, fitness.ErrNotFound
	}
	cp := g
	return &cp, nil
}

func (m *MemStore) ActiveGoals(_ context.Context, chatID int64) ([]fitness.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []fitness.Goal
	for _, g := range m.Goals {
		if g.Active && g.ChatID == chatID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) DeactivateGoal(_ context.Context, goalID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	g, ok := m.Goals[goalID]
	if !ok || !g.Active {
		return fitness.ErrNotFound
	}
	g.Active = false
	m.Goals[goalID] = g
	return nil
}

func (m *MemStore) AddProgress(_ context.Context, userID, goalID int64, day time.Time, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	k := progressKey{UserID: userID, GoalID: goalID, Day: dayKey(day)}
	m.Progress[k] += amount
	return m.Progress[k], nil
}

func (m *MemStore) DayTotals(_ context.Context, chatID int64, from, to time.Time) ([]fitness.DayTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	type acc struct {
		total int
		users map[int64]bool
	}
	byDay := map[string]*acc{}
	for k, v := range m.Progress {
		g, ok := m.Goals[k.GoalID]
		if !ok || g.ChatID != chatID {
			continue
		}
		if k.Day < dayKey(from) || k.Day > dayKey(to) {
			continue
		}
		a := byDay[k.Day]
		if a == nil {
			a = &acc{users: map[int64]bool{}}
			byDay[k.Day] = a
		}
		a.total += v
		a.users[k.UserID] = true
	}
	var out []fitness.DayTotal
	for day, a := range byDay {
		d, _ := time.Parse("2006-01-02", day)
		out = append(out, fitness.DayTotal{Day: d, Total: a.total, Participants: len(a.users)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (m *MemStore) DayCells(ctx context.Context, chatID int64, day time.Time) ([]fitness.DayCell, error) {
	goals, err := m.ActiveGoals(ctx, chatID)
	if err != nil {
		return nil, err
	}
	users, err := m.ActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []fitness.DayCell
	for _, g := range goals {
		for _, u := range users {
			v := m.Progress[progressKey{UserID: u.ID, GoalID: g.ID, Day: dayKey(day)}]
			out = append(out, fitness.DayCell{
				GoalID:   g.ID,
				GoalName: g.Name,
				Target:   g.Target,
				UserID:   u.ID,
				UserName: u.Name,
				Value:    v,
			})
		}
	}
	return out, nil
}

func (m *MemStore) UserTotals(_ context.Context, userID int64, today time.Time) (fitness.UserTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return fitness.UserTotals{}, m.Err
	}
	var t fitness.UserTotals
	days := map[string]bool{}
	for k, v := range m.Progress {
		if k.UserID != userID || v == 0 {
			continue
		}
		t.Total += v
		days[k.Day] = true
		if k.Day == dayKey(today) {
			t.TodayTotal += v
		}
	}
	t.ActiveDays = len(days)
	return t, nil
}

func (m *MemStore) DeleteProgress(_ context.Context, userID int64, from, to *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for k := range m.Progress {
		if k.UserID != userID {
			continue
		}
		if from != nil && k.Day < dayKey(*from) {
			continue
		}
		if to != nil && k.Day > dayKey(*to) {
			continue
		}
		delete(m.Progress, k)
	}
	return nil
}

func (m *MemStore) LogActivity(_ context.Context, a fitness.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	a.ID = int64(len(m.Activities) + 1)
	if u, ok := m.Users[a.UserID]; ok {
		a.UserName = u.Name
	}
	m.Activities = append(m.Activities, a)
	return nil
}

func (m *MemStore) RecentActivities(_ context.Context, chatID int64, limit int) ([]fitness.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []fitness.Activity
	for i := len(m.Activities) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Activities[i].ChatID == chatID {
			out = append(out, m.Activities[i])
		}
	}
	return out, nil
}

func (m *MemStore) MenuMessageID(_ context.Context, chatID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Menus[chatID], nil
}

func (m *MemStore) SetMenuMessageID(_ context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Menus[chatID] = messageID
	return nil
}

func (m *MemStore) ClearMenuMessage(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.Menus, chatID)
	return nil
}

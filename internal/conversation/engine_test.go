package conversation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sovanasrala/fitgroup-bot/internal/conversation"
	"github.com/sovanasrala/fitgroup-bot/internal/fitness"
	"github.com/sovanasrala/fitgroup-bot/internal/fitness/fitnesstest"
	"github.com/sovanasrala/fitgroup-bot/internal/session"
)

const (
	chatID = int64(-100500)
	anna   = int64(10)
	boris  = int64(11)
)

type fakeView struct {
	mu          sync.Mutex
	prompts     []string
	notices     []string
	menuCount   int
	statsPages  []int
	days        []time.Time
	picks       []conversation.Pick
	typePickers int
	settings    int
	resetMenus  int
	helps       int
	confirms    []int64
	profConfirm int
}

func (v *fakeView) RefreshMenu(context.Context, int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.menuCount++
	return nil
}

func (v *fakeView) ShowStats(_ context.Context, _ int64, page int) error {
	v.statsPages = append(v.statsPages, page)
	return nil
}

func (v *fakeView) ShowDay(_ context.Context, _ int64, day time.Time) error {
	v.days = append(v.days, day)
	return nil
}

func (v *fakeView) ShowSettings(context.Context, int64, int64) error {
	v.settings++
	return nil
}

func (v *fakeView) ShowResetMenu(context.Context, int64) error {
	v.resetMenus++
	return nil
}

func (v *fakeView) ShowHelp(context.Context, int64) error {
	v.helps++
	return nil
}

func (v *fakeView) ShowGoalPicker(_ context.Context, _ int64, _ []fitness.Goal, pick conversation.Pick) error {
	v.picks = append(v.picks, pick)
	return nil
}

func (v *fakeView) ShowGoalTypePicker(context.Context, int64, string, int) error {
	v.typePickers++
	return nil
}

func (v *fakeView) ShowDeleteConfirm(_ context.Context, _ int64, g *fitness.Goal) error {
	v.confirms = append(v.confirms, g.ID)
	return nil
}

func (v *fakeView) ShowDeleteProfileConfirm(context.Context, int64, int64) error {
	v.profConfirm++
	return nil
}

func (v *fakeView) Prompt(_ context.Context, _ int64, text string) error {
	v.prompts = append(v.prompts, text)
	return nil
}

func (v *fakeView) Notice(_ context.Context, _ int64, text string) error {
	v.notices = append(v.notices, text)
	return nil
}

func (v *fakeView) lastPrompt() string {
	if len(v.prompts) == 0 {
		return ""
	}
	return v.prompts[len(v.prompts)-1]
}

func (v *fakeView) lastNotice() string {
	if len(v.notices) == 0 {
		return ""
	}
	return v.notices[len(v.notices)-1]
}

type fakeResponder struct {
	popups []string
}

func (r *fakeResponder) Popup(text string) error {
	r.popups = append(r.popups, text)
	return nil
}

type fixture struct {
	engine *conversation.Engine
	view   *fakeView
	store  *fitnesstest.MemStore
	now    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := fitnesstest.NewMemStore()
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := fitness.NewService(st, time.UTC, clock)
	mgr := session.NewManager(300*time.Second, clock)
	view := &fakeView{}
	return &fixture{
		engine: conversation.New(svc, mgr, view),
		view:   view,
		store:  st,
		now:    &now,
	}
}

func (f *fixture) press(t *testing.T, userID int64, action, payload string) *fakeResponder {
	t.Helper()
	r := &fakeResponder{}
	err := f.engine.HandleCallback(context.Background(), chatID, userID, action, payload, r)
	if err != nil && !errors.Is(err, session.ErrConflict) && !errors.Is(err, session.ErrStale) {
		require.NoError(t, err)
	}
	return r
}

func (f *fixture) say(t *testing.T, userID int64, text string) bool {
	t.Helper()
	handled, err := f.engine.HandleText(context.Background(), chatID, userID, text)
	if err != nil && !errors.Is(err, session.ErrConflict) && !errors.Is(err, session.ErrStale) {
		require.NoError(t, err)
	}
	return handled
}

func TestRegistrationFlow(t *testing.T) {
	f := newFixture(t)

	f.press(t, anna, conversation.ActCreateProfile, "")
	require.Contains(t, f.view.lastPrompt(), "имя")

	require.True(t, f.say(t, anna, "Анна"))
	require.Contains(t, f.view.lastNotice(), "Анна")
	require.Equal(t, 1, f.view.menuCount)

	u, err := f.store.GetUser(context.Background(), anna)
	require.NoError(t, err)
	require.Equal(t, "Анна", u.Name)

	// Pressing the button again is rejected with a popup.
	r := f.press(t, anna, conversation.ActCreateProfile, "")
	require.Len(t, r.popups, 1)
}

func TestGoalCreationAndProgressFlow(t *testing.T) {
	f := newFixture(t)
	f.press(t, anna, conversation.ActCreateProfile, "")
	require.True(t, f.say(t, anna, "Анна"))

	f.press(t, anna, conversation.ActAddGoal, "")
	require.True(t, f.say(t, anna, "Отжимания"))
	require.Contains(t, f.view.lastPrompt(), "10000")
	require.True(t, f.say(t, anna, "50"))
	require.Equal(t, 1, f.view.typePickers)

	f.press(t, anna, conversation.ActGoalDaily, "")
	require.Contains(t, f.view.lastNotice(), "Отжимания")

	goals, err := f.store.ActiveGoals(context.Background(), chatID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	require.Equal(t, fitness.GoalDaily, goals[0].Type)
	require.Equal(t, 50, goals[0].Target)

	f.press(t, anna, conversation.ActMarkProgress, "")
	require.Equal(t, []conversation.Pick{conversation.PickProgress}, f.view.picks)

	f.press(t, anna, conversation.ActSelectGoal, "1")
	require.Contains(t, f.view.lastPrompt(), "Отжимания")

	require.True(t, f.say(t, anna, "20"))
	require.Contains(t, f.view.lastNotice(), "(40%)")

	f.press(t, anna, conversation.ActSelectGoal, "1")
	require.True(t, f.say(t, anna, "40"))
	require.Contains(t, f.view.lastNotice(), "всего за сегодня 60")
	require.Contains(t, f.view.lastNotice(), "(100%)", "display percent clamps at 100")
}

func TestSessionConflict(t *testing.T) {
	f := newFixture(t)
	f.press(t, anna, conversation.ActCreateProfile, "")

	// Another member's text gets a wait notice and is consumed.
	handled, err := f.engine.HandleText(context.Background(), chatID, boris, "Борис")
	require.True(t, handled)
	require.ErrorIs(t, err, session.ErrConflict)
	require.Contains(t, f.view.lastNotice(), "Подождите")

	// Another member's button press gets a wait popup.
	r := f.press(t, boris, conversation.ActHelp, "")
	require.Len(t, r.popups, 1)
	require.Contains(t, r.popups[0], "Подождите")
	require.Zero(t, f.view.helps)

	// The dialog owner is unaffected.
	require.True(t, f.say(t, anna, "Анна"))
	u, err := f.store.GetUser(context.Background(), anna)
	require.NoError(t, err)
	require.Equal(t, "Анна", u.Name)
}

func TestSessionExpiry(t *testing.T) {
	f := newFixture(t)
	f.press(t, anna, conversation.ActCreateProfile, "")

	*f.now = f.now.Add(301 * time.Second)
	require.False(t, f.say(t, anna, "Анна"), "expired dialog must not consume text")
	_, err := f.store.GetUser(context.Background(), anna)
	require.ErrorIs(t, err, fitness.ErrNotFound)
}

func TestValidationRepromptKeepsTTL(t *testing.T) {
	f := newFixture(t)
	start := *f.now
	f.press(t, anna, conversation.ActCreateProfile, "")

	*f.now = start.Add(200 * time.Second)
	long := strings.Repeat("а", 25)
	require.True(t, f.say(t, anna, long))
	require.Contains(t, f.view.lastPrompt(), "(25)")
	require.Contains(t, f.view.lastPrompt(), "а")

	// A failed attempt does not restart the clock: 101s later the dialog
	// is gone even though the re-prompt was only recent.
	*f.now = start.Add(301 * time.Second)
	require.False(t, f.say(t, anna, "Анна"))
}

func TestTargetAndAmountValidation(t *testing.T) {
	f := newFixture(t)
	f.press(t, anna, conversation.ActCreateProfile, "")
	require.True(t, f.say(t, anna, "Анна"))

	f.press(t, anna, conversation.ActAddGoal, "")
	require.True(t, f.say(t, anna, "Бег"))
	for _, bad := range []string{"0", "10001", "пять"} {
		require.True(t, f.say(t, anna, bad))
		require.Contains(t, f.view.lastPrompt(), bad)
	}
	require.True(t, f.say(t, anna, "5"))
	f.press(t, anna, conversation.ActGoalDaily, "")

	f.press(t, anna, conversation.ActSelectGoal, "1")
	for _, bad := range []string{"-3", "0", "x"} {
		require.True(t, f.say(t, anna, bad))
		require.Contains(t, f.view.lastPrompt(), bad)
	}
	require.True(t, f.say(t, anna, "3"))
	require.Len(t, f.store.Progress, 1)
}

func TestSlashMessagesAreIgnored(t *testing.T) {
	f := newFixture(t)
	f.press(t, anna, conversation.ActCreateProfile, "")
	require.False(t, f.say(t, anna, "/stats"))
	// The dialog is still live afterwards.
	require.True(t, f.say(t, anna, "Анна"))
}

func TestStaleCallbacks(t *testing.T) {
	f := newFixture(t)

	// Goal-type press with no dialog at all: popup plus a menu redraw so
	// the chat lands back on the idle screen.
	r := f.press(t, anna, conversation.ActGoalDaily, "")
	require.Len(t, r.popups, 1)
	require.Contains(t, r.popups[0], "устарела")
	require.Equal(t, 1, f.view.menuCount)

	// select_goal for a goal that is gone.
	f.press(t, anna, conversation.ActCreateProfile, "")
	require.True(t, f.say(t, anna, "Анна"))
	r = f.press(t, anna, conversation.ActSelectGoal, "999")
	require.Len(t, r.popups, 1)
	require.Equal(t, 3, f.view.menuCount, "stale press redraws the menu")
}

func TestUnregisteredUserIsGated(t *testing.T) {
	f := newFixture(t)
	for _, action := range []string{
		conversation.ActAddGoal,
		conversation.ActMarkProgress,
		conversation.ActSettings,
		conversation.ActChangeName,
	} {
		r := f.press(t, anna, action, "")
		require.Len(t, r.popups, 1, action)
		require.Contains(t, r.popups[0], "профиль", action)
	}
	require.Empty(t, f.view.prompts)
}

func TestStatsNavigationClamps(t *testing.T) {
	f := newFixture(t)
	f.press(t, anna, conversation.ActStatistics, "")
	f.press(t, anna, conversation.ActStatsPrev, "1")
	f.press(t, anna, conversation.ActStatsPrev, "7")
	f.press(t, anna, conversation.ActStatsNext, "-1")
	f.press(t, anna, conversation.ActStatsToday, "")
	require.Equal(t, []int{0, 1, 3, 0, 0}, f.view.statsPages)

	f.press(t, anna, conversation.ActStatsDay, "2026-08-24")
	require.Len(t, f.view.days, 1)
	require.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), f.view.days[0])
}

func TestCancelAbandonsDialog(t *testing.T) {
	f := newFixture(t)
	f.press(t, anna, conversation.ActCreateProfile, "")
	r := f.press(t, anna, conversation.ActCancel, "")
	require.Len(t, r.popups, 1)
	require.False(t, f.say(t, anna, "Анна"), "cancelled dialog must not consume text")
}

func TestDeleteGoalConfirmExecute(t *testing.T) {
	f := newFixture(t)
	f.press(t, anna, conversation.ActCreateProfile, "")
	require.True(t, f.say(t, anna, "Анна"))
	f.press(t, anna, conversation.ActAddGoal, "")
	require.True(t, f.say(t, anna, "Бег"))
	require.True(t, f.say(t, anna, "5"))
	f.press(t, anna, conversation.ActGoalDaily, "")
	f.press(t, anna, conversation.ActSelectGoal, "1")
	require.True(t, f.say(t, anna, "3"))

	f.press(t, anna, conversation.ActDeleteGoal, "")
	require.Equal(t, conversation.PickDelete, f.view.picks[len(f.view.picks)-1])
	f.press(t, anna, conversation.ActConfirmDelete, "1")
	require.Equal(t, []int64{1}, f.view.confirms)
	f.press(t, anna, conversation.ActExecuteDelete, "1")

	goals, err := f.store.ActiveGoals(context.Background(), chatID)
	require.NoError(t, err)
	require.Empty(t, goals)
	require.Len(t, f.store.Progress, 1, "goal deletion keeps recorded progress")
}

func TestResetClearsOnlyCallersProgress(t *testing.T) {
	f := newFixture(t)
	f.press(t, anna, conversation.ActCreateProfile, "")
	require.True(t, f.say(t, anna, "Анна"))
	f.press(t, boris, conversation.ActCreateProfile, "")
	require.True(t, f.say(t, boris, "Борис"))

	f.press(t, anna, conversation.ActAddGoal, "")
	require.True(t, f.say(t, anna, "Бег"))
	require.True(t, f.say(t, anna, "5"))
	f.press(t, anna, conversation.ActGoalDaily, "")

	f.press(t, anna, conversation.ActSelectGoal, "1")
	require.True(t, f.say(t, anna, "3"))
	f.press(t, boris, conversation.ActSelectGoal, "1")
	require.True(t, f.say(t, boris, "2"))
	require.Len(t, f.store.Progress, 2)

	f.press(t, anna, conversation.ActResetMenu, "")
	require.Equal(t, 1, f.view.resetMenus)

	r := f.press(t, anna, conversation.ActResetAll, "")
	require.Len(t, r.popups, 1)
	require.Len(t, f.store.Progress, 1, "reset must not touch other members' progress")
}

func TestDeleteProfilePurgesProgress(t *testing.T) {
	f := newFixture(t)
	f.press(t, anna, conversation.ActCreateProfile, "")
	require.True(t, f.say(t, anna, "Анна"))
	f.press(t, anna, conversation.ActAddGoal, "")
	require.True(t, f.say(t, anna, "Бег"))
	require.True(t, f.say(t, anna, "5"))
	f.press(t, anna, conversation.ActGoalDaily, "")
	f.press(t, anna, conversation.ActSelectGoal, "1")
	require.True(t, f.say(t, anna, "3"))

	f.press(t, anna, conversation.ActDeleteProfile, "")
	require.Equal(t, 1, f.view.profConfirm)
	f.press(t, anna, conversation.ActConfirmDeleteProfile, "")

	require.Empty(t, f.store.Progress, "profile deletion purges progress")
	_, err := f.store.GetUser(context.Background(), anna)
	require.ErrorIs(t, err, fitness.ErrNotFound)
}

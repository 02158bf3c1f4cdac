package conversation

// Callback action keys. These are part of the wire format: inline buttons
// carry them as the unique part of the callback data, so renaming one
// invalidates every keyboard already sitting in chat history.
const (
	ActCreateProfile = "create_profile"
	ActAddGoal       = "add_goal"
	ActMarkProgress  = "mark_progress"
	ActSelectGoal    = "select_goal" // payload: goal id
	ActGoalDaily     = "goal_type_daily"
	ActGoalMonthly   = "goal_type_monthly"

	ActStatistics = "statistics"
	ActStatsPrev  = "statistics_prev" // payload: target page
	ActStatsNext  = "statistics_next" // payload: target page
	ActStatsToday = "statistics_today"
	ActStatsBack  = "statistics_back"
	ActStatsDay   = "stats_day" // payload: date 2006-01-02

	ActSettings   = "settings"
	ActChangeName = "change_name"
	ActToggle     = "toggle_notifications"
	ActResetMenu  = "reset_menu"
	ActResetToday = "reset_today"
	ActResetWeek  = "reset_week"
	ActResetAll   = "reset_all"

	ActDeleteProfile        = "delete_profile"
	ActConfirmDeleteProfile = "confirm_delete_profile"
	ActDeleteGoal           = "delete_goal"
	ActConfirmDelete        = "confirm_delete" // payload: goal id
	ActExecuteDelete        = "execute_delete" // payload: goal id

	ActHelp     = "help"
	ActCancel   = "cancel"
	ActMainMenu = "main_menu"
	ActNoop     = "noop"
)

// StatsPages is how many week pages the statistics view keeps reachable.
const StatsPages = 4

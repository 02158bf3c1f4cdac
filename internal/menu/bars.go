package menu

import "strings"

const barWidth = 10

// Bar renders the wide progress bar used on the main menu.
func Bar(percent int) string {
	return bar(percent, "█", "░")
}

// SmallBar renders the compact bar used in statistics breakdowns.
func SmallBar(percent int) string {
	return bar(percent, "▰", "▱")
}

func bar(percent int, full, empty string) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * barWidth / 100
	return strings.Repeat(full, filled) + strings.Repeat(empty, barWidth-filled)
}

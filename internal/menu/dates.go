package menu

import (
	"fmt"
	"time"
)

var monthsRu = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

var weekdaysRu = [...]string{
	"воскресенье", "понедельник", "вторник", "среда",
	"четверг", "пятница", "суббота",
}

var weekdaysShortRu = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// FormatDate renders "26 августа, среда".
func FormatDate(d time.Time) string {
	return fmt.Sprintf("%d %s, %s", d.Day(), monthsRu[d.Month()-1], weekdaysRu[d.Weekday()])
}

// FormatDateShort renders "26 августа".
func FormatDateShort(d time.Time) string {
	return fmt.Sprintf("%d %s", d.Day(), monthsRu[d.Month()-1])
}

// FormatWeekRange renders "24–30 августа" or "28 июля – 3 августа" when the
// week spans two months.
func FormatWeekRange(start time.Time) string {
	end := start.AddDate(0, 0, 6)
	if start.Month() == end.Month() {
		return fmt.Sprintf("%d–%d %s", start.Day(), end.Day(), monthsRu[start.Month()-1])
	}
	return fmt.Sprintf("%s – %s", FormatDateShort(start), FormatDateShort(end))
}

// WeekdayShort renders the two-letter Russian weekday.
func WeekdayShort(d time.Time) string {
	return weekdaysShortRu[d.Weekday()]
}

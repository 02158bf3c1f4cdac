package conversation

import (
	"fmt"
	"html"
	"unicode/utf8"
)

// Dialog prompts and popups. Screens with data come from the menu renderer;
// these are the short conversational texts the engine itself sends.
const (
	txtPromptName       = "👤 Введите ваше имя (от 1 до 20 символов):"
	txtPromptNewName    = "✏️ Введите новое имя (от 1 до 20 символов):"
	txtPromptGoalName   = "🎯 Введите название цели (от 1 до 30 символов):"
	txtPromptGoalTarget = "🔢 Введите целевое число (от 1 до 10000):"

	txtConflict     = "⏳ Подождите, другой участник сейчас вводит данные."
	txtStale        = "Эта кнопка устарела. Обновите меню."
	txtNeedProfile  = "Сначала создайте профиль."
	txtAlreadyHave  = "У вас уже есть профиль."
	txtNoGoals      = "Пока нет ни одной цели. Добавьте первую!"
	txtCancelled    = "Действие отменено."
	txtGoalDeleted  = "Цель удалена. История прогресса сохранена."
	txtUserDeleted  = "Профиль удалён вместе со всем прогрессом."
	txtResetDone    = "Прогресс сброшен."
	txtNotifyOn     = "🔔 Напоминания включены."
	txtNotifyOff    = "🔕 Напоминания выключены."
)

func promptAmount(goalName string) string {
	return fmt.Sprintf("💪 Сколько выполнено по цели «%s»? Введите число:", html.EscapeString(goalName))
}

func echoInput(s string) string {
	const max = 40
	r := []rune(s)
	if len(r) > max {
		s = string(r[:max]) + "…"
	}
	return html.EscapeString(s)
}

func badName(input string) string {
	return fmt.Sprintf("⚠️ Имя должно быть от 1 до 20 символов. Вы ввели: «%s» (%d). Попробуйте ещё раз:",
		echoInput(input), utf8.RuneCountInString(input))
}

func badGoalName(input string) string {
	return fmt.Sprintf("⚠️ Название цели должно быть от 1 до 30 символов. Вы ввели: «%s» (%d). Попробуйте ещё раз:",
		echoInput(input), utf8.RuneCountInString(input))
}

func badTarget(input string) string {
	return fmt.Sprintf("⚠️ Нужно целое число от 1 до 10000. Вы ввели: «%s». Попробуйте ещё раз:",
		echoInput(input))
}

func badAmount(input string) string {
	return fmt.Sprintf("⚠️ Нужно положительное целое число. Вы ввели: «%s». Попробуйте ещё раз:",
		echoInput(input))
}

func doneRegistered(name string) string {
	return fmt.Sprintf("✅ Добро пожаловать, %s!", html.EscapeString(name))
}

func doneRenamed(name string) string {
	return fmt.Sprintf("✅ Теперь вас зовут %s.", html.EscapeString(name))
}

func doneGoalCreated(name string, target int) string {
	return fmt.Sprintf("✅ Цель «%s» на %d добавлена.", html.EscapeString(name), target)
}

func doneProgress(goalName string, added, total, percent int) string {
	return fmt.Sprintf("✅ «%s»: +%d, всего за сегодня %d (%d%%).",
		html.EscapeString(goalName), added, total, percent)
}

package formatting

import (
	"fmt"
	"time"
)

// FormatDateTime форматирует дату и время
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatDate форматирует только дату
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatRemaining форматирует оставшееся до дедлайна время
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "время вышло"
	}
	if d < time.Minute {
		return "меньше минуты"
	}

	minutes := int(d / time.Minute)
	hours := minutes / 60
	mins := minutes % 60

	switch {
	case hours == 0:
		return fmt.Sprintf("%d мин", mins)
	case mins == 0:
		return fmt.Sprintf("%d ч", hours)
	default:
		return fmt.Sprintf("%d ч %d мин", hours, mins)
	}
}

// FormatWindow форматирует длительность окна в часах: "24 часа"
func FormatWindow(d time.Duration) string {
	hours := int64(d / time.Hour)
	return fmt.Sprintf("%d %s", hours, PluralizeHours(hours))
}

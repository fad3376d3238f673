package formatting

// pluralize выбирает форму слова для числа: one (1 кредит), few (2 кредита), many (5 кредитов)
func pluralize(count int64, one, few, many string) string {
	if count < 0 {
		count = -count
	}
	if count%10 == 1 && count%100 != 11 {
		return one
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return few
	}
	return many
}

// PluralizeCredits возвращает правильное склонение слова "кредит"
func PluralizeCredits(count int64) string {
	return pluralize(count, "кредит", "кредита", "кредитов")
}

// PluralizeSessions возвращает правильное склонение слова "сессия"
func PluralizeSessions(count int) string {
	return pluralize(int64(count), "сессия", "сессии", "сессий")
}

// PluralizeHours возвращает правильное склонение слова "час"
func PluralizeHours(count int64) string {
	return pluralize(count, "час", "часа", "часов")
}

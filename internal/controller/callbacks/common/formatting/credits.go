package formatting

import "fmt"

// FormatCredits форматирует количество кредитов: "10 кредитов"
func FormatCredits(amount int64) string {
	return fmt.Sprintf("%d %s", amount, PluralizeCredits(amount))
}

// FormatCreditsDelta форматирует изменение баланса со знаком: "+10", "−10"
func FormatCreditsDelta(amount int64) string {
	if amount > 0 {
		return fmt.Sprintf("+%d", amount)
	}
	if amount < 0 {
		return fmt.Sprintf("−%d", -amount)
	}
	return "0"
}

package format

import "fmt"

// MaxElapsedSeconds bounds the elapsed time the timer will ever display
// (~100,000 hours), past which the counter simply stops advancing rather
// than overflowing any fixed-width field.
const MaxElapsedSeconds = 360000000

const secondsPerDay = 86400

// FormatTimer renders elapsed seconds as "[D:]H:MM:SS", including a day
// count only once elapsed exceeds a day.
func FormatTimer(elapsedSeconds float64) string {
	if elapsedSeconds > MaxElapsedSeconds {
		elapsedSeconds = MaxElapsedSeconds
	}

	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}

	total := int64(elapsedSeconds)

	if total > secondsPerDay {
		days := total / secondsPerDay
		hours := (total / 3600) % 24
		minutes := (total / 60) % 60
		seconds := total % 60

		return fmt.Sprintf("%d:%02d:%02d:%02d", days, hours, minutes, seconds)
	}

	hours := total / 3600
	minutes := (total / 60) % 60
	seconds := total % 60

	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

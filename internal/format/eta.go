package format

import (
	"fmt"
	"strings"
	"time"
)

const sixHoursInSeconds = 6 * 3600

// FormatETA renders the estimated time to completion as "ETA [D:]H:MM:SS".
// When final is true the text is blanked (spaces of the same width) so the
// last paint does not leave a stale ETA on screen.
func FormatETA(etaSeconds float64, final bool) string {
	eta := clampETA(etaSeconds)

	var content string

	days := int64(eta) / secondsPerDay
	if int64(eta) > secondsPerDay {
		hours := (int64(eta) / 3600) % 24
		minutes := (int64(eta) / 60) % 60
		seconds := int64(eta) % 60
		content = fmt.Sprintf("ETA %d:%02d:%02d:%02d", days, hours, minutes, seconds)
	} else {
		hours := int64(eta) / 3600
		minutes := (int64(eta) / 60) % 60
		seconds := int64(eta) % 60
		content = fmt.Sprintf("ETA %d:%02d:%02d", hours, minutes, seconds)
	}

	if final {
		return strings.Repeat(" ", VisibleWidth(content))
	}

	return content
}

// FormatFinalETA renders the estimated wall-clock completion time as
// "FIN [YYYY-MM-DD ]HH:MM:SS", including the date only when the ETA is more
// than six hours away. now is the time the estimate is being made from.
func FormatFinalETA(etaSeconds float64, now time.Time) string {
	eta := clampETA(etaSeconds)

	completion := now.Add(time.Duration(eta * float64(time.Second)))

	if eta > sixHoursInSeconds {
		return "FIN " + completion.Format("2006-01-02 15:04:05")
	}

	return "FIN " + completion.Format("15:04:05")
}

func clampETA(seconds float64) float64 {
	if seconds < 0 {
		return 0
	}

	if seconds > MaxElapsedSeconds {
		return MaxElapsedSeconds
	}

	return seconds
}

package intent

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"barberbridge/internal/models"
)

var (
	todayWords    = []string{"today", "hoje"}
	tomorrowWords = []string{"tomorrow", "amanhã", "amanha"}

	dayMonthPattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)
	clockPattern    = regexp.MustCompile(`(\d{1,2}):?(\d{2})?`)
)

// ExtractDate returns the date mentioned in text as YYYY-MM-DD, falling back to ref.
// A D/M pattern always takes the year of ref and is not checked against the calendar.
func ExtractDate(text string, ref time.Time) string {
	msg := strings.ToLower(text)

	if containsAny(msg, todayWords) {
		return ref.Format(models.DateLayout)
	}
	if containsAny(msg, tomorrowWords) {
		return ref.AddDate(0, 0, 1).Format(models.DateLayout)
	}

	if m := dayMonthPattern.FindStringSubmatch(msg); m != nil {
		return fmt.Sprintf("%d-%s-%s", ref.Year(), padTwo(m[2]), padTwo(m[1]))
	}

	return ref.Format(models.DateLayout)
}

// ExtractTime returns the first clock-like number in text as HH:MM, or DefaultTime.
// Hours and minutes are passed through without range checks.
func ExtractTime(text string) string {
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return models.DefaultTime
	}

	minutes := m[2]
	if minutes == "" {
		minutes = "00"
	}
	return padTwo(m[1]) + ":" + padTwo(minutes)
}

func padTwo(s string) string {
	if len(s) < 2 {
		return strings.Repeat("0", 2-len(s)) + s
	}
	return s
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

package clock

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// ErrInvalidDuration is returned for durations that cannot be parsed.
var ErrInvalidDuration = errors.New("invalid duration")

// StampLayout is how timeline timestamps are shown, e.g. "03/14 2:05 PM".
const StampLayout = "01/02 3:04 PM"

// ParseISODuration parses an ISO-8601 duration such as "PT3H20M". Go
// duration strings ("3h20m") are accepted too.
func ParseISODuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidDuration)
	}
	if strings.HasPrefix(s, "P") || strings.HasPrefix(s, "-P") {
		d, err := duration.Parse(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDuration, s, err)
		}
		return d.ToTimeDuration(), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDuration, s, err)
	}
	return d, nil
}

// FormatISODuration renders d as an ISO-8601 duration.
func FormatISODuration(d time.Duration) string {
	return duration.Format(d)
}

// ISODuration is a time.Duration that travels as an ISO-8601 string in JSON.
type ISODuration time.Duration

// Std returns the value as a time.Duration.
func (d ISODuration) Std() time.Duration {
	return time.Duration(d)
}

func (d ISODuration) String() string {
	return FormatISODuration(time.Duration(d))
}

// MarshalJSON encodes the duration as an ISO-8601 string.
func (d ISODuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts an ISO-8601 or Go duration string.
func (d *ISODuration) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected a string: %v", ErrInvalidDuration, err)
	}
	parsed, err := ParseISODuration(s)
	if err != nil {
		return err
	}
	*d = ISODuration(parsed)
	return nil
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// Remaining is the time left between now and end, never negative.
func Remaining(end, now time.Time) time.Duration {
	return ClampZero(end.Sub(now))
}

// FormatClock renders d as "HH:mm", or "D:HH:mm" when it spans a day or
// more. Seconds are truncated and negative values render as "00:00".
func FormatClock(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}
	total := int64(d / time.Minute)
	days := total / (24 * 60)
	hours := (total / 60) % 24
	minutes := total % 60
	if days > 0 {
		return fmt.Sprintf("%d:%02d:%02d", days, hours, minutes)
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// FormatRemaining formats a countdown. One minute is added before truncation
// so the display does not show "00:00" while time is still left.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}
	return FormatClock(d + time.Minute)
}

// FormatStamp renders t in loc using StampLayout.
func FormatStamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(StampLayout)
}

const (
	day       = 24 * time.Hour
	daysMonth = 30.436875
	daysYear  = 365.2425
)

// Humanize describes a duration in words ("a few seconds", "3 hours",
// "a month"). With suffix, positive durations read "in 3 hours" and zero or
// negative ones "3 hours ago".
func Humanize(d time.Duration, withSuffix bool) string {
	text := humanizeAbs(math.Abs(d.Seconds()))
	if !withSuffix {
		return text
	}
	if d > 0 {
		return "in " + text
	}
	return text + " ago"
}

// humanizeAbs applies the usual relative-time thresholds, rounding each unit
// before comparing it.
func humanizeAbs(secs float64) string {
	if math.Round(secs) <= 44 {
		return "a few seconds"
	}
	if math.Round(secs) <= 89 {
		return "a minute"
	}
	minutes := math.Round(secs / 60)
	if minutes <= 44 {
		return fmt.Sprintf("%d minutes", int64(minutes))
	}
	if minutes <= 89 {
		return "an hour"
	}
	hours := math.Round(secs / 3600)
	if hours <= 21 {
		return fmt.Sprintf("%d hours", int64(hours))
	}
	if hours <= 35 {
		return "a day"
	}
	daysF := secs / day.Seconds()
	days := math.Round(daysF)
	if days <= 25 {
		return fmt.Sprintf("%d days", int64(days))
	}
	if days <= 45 {
		return "a month"
	}
	months := math.Round(daysF / daysMonth)
	if months <= 10 {
		return fmt.Sprintf("%d months", int64(months))
	}
	if months <= 17 {
		return "a year"
	}
	return fmt.Sprintf("%d years", int64(math.Round(daysF/daysYear)))
}

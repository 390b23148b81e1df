package plan

import (
	"fmt"
	"time"
)

// WeekKey identifies a calendar week by its Monday, formatted as YYYY-MM-DD.
type WeekKey string

const weekKeyLayout = "2006-01-02"

// WeekKeyFor normalizes any date to the WeekKey of the week it falls in.
// Weeks start on Monday; two dates in the same Mon-Sun span always produce
// the identical key.
func WeekKeyFor(t time.Time) WeekKey {
	// time.Weekday numbers Sunday as 0, so shift it to the end of the week.
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	monday := t.AddDate(0, 0, -offset)
	return WeekKey(monday.Format(weekKeyLayout))
}

// ParseWeekKey validates a raw week identifier and re-anchors it to Monday.
func ParseWeekKey(s string) (WeekKey, error) {
	t, err := time.Parse(weekKeyLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid week key %q: %w", s, err)
	}
	return WeekKeyFor(t), nil
}

// Monday returns the date the key is anchored to.
func (k WeekKey) Monday() time.Time {
	t, err := time.Parse(weekKeyLayout, string(k))
	if err != nil {
		// WeekKeys are only produced by WeekKeyFor/ParseWeekKey, so a
		// malformed value is a programming error.
		panic(fmt.Sprintf("malformed week key %q: %v", k, err))
	}
	return t
}

func (k WeekKey) String() string {
	return string(k)
}

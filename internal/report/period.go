package report

import (
	"time"

	"github.com/agencyops/pulse/internal/models"
)

// maxPeriods caps bucket generation so a pathological range can never
// loop unbounded; callers get a truncated-but-valid sequence instead.
const maxPeriods = 100

// GeneratePeriods converts a validated filter into an ordered sequence
// of contiguous, non-overlapping buckets covering [start, end]
// inclusive. Month buckets follow real calendar month lengths; week
// windows are clipped to the range end.
func GeneratePeriods(f models.FilterSelection) ([]models.Period, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	start := dayUTC(f.StartDate)
	end := dayUTC(f.EndDate)

	periods := make([]models.Period, 0, 8)
	cursor := start
	for !cursor.After(end) && len(periods) < maxPeriods {
		var next time.Time
		var label string
		switch f.Granularity {
		case models.GranularityDay:
			label = cursor.Format("02/01")
			next = cursor.AddDate(0, 0, 1)
		case models.GranularityWeek:
			wEnd := cursor.AddDate(0, 0, 6)
			if wEnd.After(end) {
				wEnd = end
			}
			label = cursor.Format("02/01") + " - " + wEnd.Format("02/01")
			next = cursor.AddDate(0, 0, 7)
		case models.GranularityMonth:
			label = cursor.Format("01/2006")
			next = time.Date(cursor.Year(), cursor.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		}
		// endKey is one day before the next cursor so adjacent buckets
		// tile the range with no gaps, clipped to the requested end.
		endKey := next.AddDate(0, 0, -1)
		if endKey.After(end) {
			endKey = end
		}
		periods = append(periods, models.Period{Label: label, Key: cursor, EndKey: endKey})
		cursor = next
	}
	return periods, nil
}

// periodContains reports whether a day-normalized date belongs to the
// bucket. Month buckets match on year+month of the key (they vary in
// length and the first bucket may start mid-month); day buckets match
// the key exactly; week buckets use the inclusive [key, endKey] span.
func periodContains(p models.Period, g models.Granularity, t time.Time) bool {
	if t.IsZero() {
		return false
	}
	d := dayUTC(t)
	switch g {
	case models.GranularityDay:
		return d.Equal(p.Key)
	case models.GranularityMonth:
		return d.Year() == p.Key.Year() && d.Month() == p.Key.Month()
	default:
		return !d.Before(p.Key) && !d.After(p.EndKey)
	}
}

func dayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/pulse/internal/models"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func filter(from, to string, g models.Granularity) models.FilterSelection {
	return models.FilterSelection{
		ClientID:    "acme",
		StartDate:   date(from),
		EndDate:     date(to),
		Granularity: g,
	}
}

func TestGeneratePeriodsCoversRangeExactlyOnce(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
	}{
		{"short", "2024-05-01", "2024-05-10"},
		{"month boundary", "2024-01-15", "2024-03-05"},
		{"leap february", "2024-02-20", "2024-03-02"},
		{"year boundary", "2023-12-28", "2024-01-04"},
	}
	for _, g := range []models.Granularity{models.GranularityDay, models.GranularityWeek, models.GranularityMonth} {
		for _, tc := range cases {
			t.Run(string(g)+"/"+tc.name, func(t *testing.T) {
				periods, err := GeneratePeriods(filter(tc.from, tc.to, g))
				require.NoError(t, err)
				require.NotEmpty(t, periods)

				// Every day in the range is covered by exactly one
				// [key, endKey] span, in chronological order.
				for d := date(tc.from); !d.After(date(tc.to)); d = d.AddDate(0, 0, 1) {
					hits := 0
					for _, p := range periods {
						if !d.Before(p.Key) && !d.After(p.EndKey) {
							hits++
						}
					}
					assert.Equal(t, 1, hits, "day %s covered %d times", d.Format("2006-01-02"), hits)
				}
				for i := 1; i < len(periods); i++ {
					assert.Equal(t, periods[i-1].EndKey.AddDate(0, 0, 1), periods[i].Key,
						"bucket %d does not start the day after its predecessor ends", i)
				}
				assert.Equal(t, date(tc.from), periods[0].Key)
				assert.Equal(t, date(tc.to), periods[len(periods)-1].EndKey)
			})
		}
	}
}

func TestGeneratePeriodsSingleDay(t *testing.T) {
	for _, g := range []models.Granularity{models.GranularityDay, models.GranularityWeek, models.GranularityMonth} {
		periods, err := GeneratePeriods(filter("2024-05-01", "2024-05-01", g))
		require.NoError(t, err)
		require.Len(t, periods, 1, "granularity %s", g)
		assert.Equal(t, date("2024-05-01"), periods[0].Key)
		assert.Equal(t, date("2024-05-01"), periods[0].EndKey)
	}
}

func TestGeneratePeriodsMonthLengths(t *testing.T) {
	periods, err := GeneratePeriods(filter("2024-01-15", "2024-03-05", models.GranularityMonth))
	require.NoError(t, err)
	require.Len(t, periods, 3)

	assert.Equal(t, date("2024-01-15"), periods[0].Key)
	assert.Equal(t, date("2024-01-31"), periods[0].EndKey)
	assert.Equal(t, "01/2024", periods[0].Label)

	assert.Equal(t, date("2024-02-01"), periods[1].Key)
	assert.Equal(t, date("2024-02-29"), periods[1].EndKey) // leap year
	assert.Equal(t, "02/2024", periods[1].Label)

	assert.Equal(t, date("2024-03-01"), periods[2].Key)
	assert.Equal(t, date("2024-03-05"), periods[2].EndKey)
}

func TestGeneratePeriodsWeekClipsToEnd(t *testing.T) {
	periods, err := GeneratePeriods(filter("2024-05-01", "2024-05-10", models.GranularityWeek))
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, date("2024-05-07"), periods[0].EndKey)
	assert.Equal(t, date("2024-05-10"), periods[1].EndKey)
	assert.Equal(t, "08/05 - 10/05", periods[1].Label)
}

func TestGeneratePeriodsIterationCeiling(t *testing.T) {
	periods, err := GeneratePeriods(filter("2020-01-01", "2021-12-31", models.GranularityDay))
	require.NoError(t, err)
	assert.Len(t, periods, maxPeriods)
}

func TestGeneratePeriodsRejectsProgrammerErrors(t *testing.T) {
	_, err := GeneratePeriods(filter("2024-05-02", "2024-05-01", models.GranularityDay))
	assert.Error(t, err)

	_, err = GeneratePeriods(filter("2024-05-01", "2024-05-02", models.Granularity("hour")))
	assert.Error(t, err)

	f := filter("2024-05-01", "2024-05-02", models.GranularityDay)
	f.ClientID = ""
	_, err = GeneratePeriods(f)
	assert.Error(t, err)
}

func TestPeriodContainsMonthMatchesOnPrefix(t *testing.T) {
	// A month bucket keyed mid-month still owns every day of that
	// calendar month, not just [key, endKey].
	p := models.Period{Key: date("2024-01-15"), EndKey: date("2024-01-31")}
	assert.True(t, periodContains(p, models.GranularityMonth, date("2024-01-03")))
	assert.True(t, periodContains(p, models.GranularityMonth, date("2024-01-31")))
	assert.False(t, periodContains(p, models.GranularityMonth, date("2024-02-01")))
	assert.False(t, periodContains(p, models.GranularityMonth, date("2023-01-20")))
}

func TestPeriodContainsRejectsZeroTime(t *testing.T) {
	p := models.Period{Key: date("2024-01-01"), EndKey: date("2024-01-07")}
	for _, g := range []models.Granularity{models.GranularityDay, models.GranularityWeek, models.GranularityMonth} {
		assert.False(t, periodContains(p, g, time.Time{}))
	}
}

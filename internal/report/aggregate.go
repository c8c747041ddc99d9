package report

import (
	"github.com/agencyops/pulse/internal/models"
)

// Aggregate produces one PeriodData per bucket by reconciling the
// manually entered rows with the ingested lead/conversion feeds.
//
// Per channel: manual rows contribute all four metrics; leads add one
// lead each; conversions add one conversion plus their deal value.
// Investment stays manual-only (ad spend never arrives via the feeds).
// Everything is a commutative sum, so output is independent of input
// order, and recomputing on the same snapshot yields identical output.
// Records with a zero/unparsable date were dropped at ingest and the
// membership test rejects zero times as well, so a single dirty row
// never breaks the whole dashboard.
func Aggregate(g models.Granularity, periods []models.Period, manual []models.ManualMetricRow, leads []models.Lead, conversions []models.Conversion) []models.PeriodData {
	out := make([]models.PeriodData, 0, len(periods))
	for _, p := range periods {
		pd := models.PeriodData{Period: p}

		for _, row := range manual {
			if !periodContains(p, g, row.Date) {
				continue
			}
			sum := pd.ChannelSummaryFor(row.Channel)
			sum.Leads += row.Leads
			sum.Investment += row.Investment
			sum.Conversions += row.Conversions
			sum.Revenue += row.Revenue
		}
		for _, l := range leads {
			if !periodContains(p, g, l.CreatedAt) {
				continue
			}
			pd.ChannelSummaryFor(l.Channel()).Leads++
		}
		for _, c := range conversions {
			if !periodContains(p, g, c.CreatedAt) {
				continue
			}
			sum := pd.ChannelSummaryFor(c.Channel)
			sum.Conversions++
			sum.Revenue += c.DealValue
		}

		pd.Total = rollUp(&pd)
		out = append(out, pd)
	}
	return out
}

func rollUp(pd *models.PeriodData) models.TotalSummary {
	var t models.TotalSummary
	for _, c := range models.Channels {
		t.ChannelSummary.Add(*pd.ChannelSummaryFor(c))
	}
	if t.Leads > 0 {
		t.CPL = t.Investment / float64(t.Leads)
		t.Rate = float64(t.Conversions) / float64(t.Leads)
	}
	return t
}

// Totals collapses a PeriodData slice into one summary for the cards
// shown above the chart, with the same zero-lead guards.
func Totals(rows []models.PeriodData) models.TotalSummary {
	var t models.TotalSummary
	for i := range rows {
		t.ChannelSummary.Add(rows[i].Total.ChannelSummary)
	}
	if t.Leads > 0 {
		t.CPL = t.Investment / float64(t.Leads)
		t.Rate = float64(t.Conversions) / float64(t.Leads)
	}
	return t
}

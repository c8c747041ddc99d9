package report

import (
	"bytes"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/pulse/internal/models"
	"github.com/agencyops/pulse/internal/store"
)

func query(client, from, to, g string) url.Values {
	v := url.Values{}
	v.Set("client", client)
	v.Set("from", from)
	v.Set("to", to)
	if g != "" {
		v.Set("granularity", g)
	}
	return v
}

func TestServiceDashboardFromSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	st.ReplaceManual("acme", []models.ManualMetricRow{
		{ClientID: "acme", Date: date("2024-05-01"), Channel: models.ChannelMeta, Leads: 10, Investment: 500, Conversions: 2, Revenue: 1000},
	})
	st.ReplaceLeads("acme", []models.Lead{
		{CreatedAt: ts("2024-05-01T10:00:00Z"), UTMSource: "facebook"},
	})
	st.ReplaceConversions("acme", []models.Conversion{
		{CreatedAt: ts("2024-05-01T12:00:00Z"), DealValue: 300, Channel: models.ChannelMeta},
	})

	svc := NewService(st)
	rows, err := svc.Dashboard(query("acme", "2024-05-01", "2024-05-01", "day"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 11, rows[0].Meta.Leads)
	assert.Equal(t, 1300.0, rows[0].Meta.Revenue)

	total, err := svc.Summary(query("acme", "2024-05-01", "2024-05-01", "day"))
	require.NoError(t, err)
	assert.InDelta(t, 500.0/11, total.CPL, 0.0001)
}

func TestServiceUnknownClientIsEmptyNotError(t *testing.T) {
	svc := NewService(store.NewMemoryStore())
	rows, err := svc.Dashboard(query("ghost", "2024-05-01", "2024-05-03", "day"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, models.TotalSummary{}, r.Total)
	}
}

func TestParseFilterRejectsBadInput(t *testing.T) {
	svc := NewService(store.NewMemoryStore())

	_, err := svc.Dashboard(query("acme", "2024-05-01", "2024-05-03", "hour"))
	assert.Error(t, err)

	_, err = svc.Dashboard(query("acme", "05/01/2024", "2024-05-03", "day"))
	assert.Error(t, err)

	_, err = svc.Dashboard(query("", "2024-05-01", "2024-05-03", "day"))
	assert.Error(t, err)
}

func TestParseFilterDefaultsToDay(t *testing.T) {
	f, err := ParseFilter(query("acme", "2024-05-01", "2024-05-03", ""))
	require.NoError(t, err)
	assert.Equal(t, models.GranularityDay, f.Granularity)
}

func TestWriteCSV(t *testing.T) {
	periods, err := GeneratePeriods(filter("2024-05-01", "2024-05-01", models.GranularityDay))
	require.NoError(t, err)
	rows := Aggregate(models.GranularityDay, periods, []models.ManualMetricRow{
		{Date: date("2024-05-01"), Channel: models.ChannelMeta, Leads: 2, Investment: 50.5, Conversions: 1, Revenue: 120},
	}, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
	assert.Contains(t, lines[1], "2024-05-01")
	assert.Contains(t, lines[1], "50.50")
	assert.Contains(t, lines[1], "25.25") // cpl
}

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/agencyops/pulse/internal/models"
	"github.com/agencyops/pulse/internal/store"
	"github.com/agencyops/pulse/internal/utils"
)

// Service answers dashboard queries from the latest store snapshot.
// Every query is a full recompute; nothing is patched incrementally.
type Service struct{ st *store.MemoryStore }

func NewService(st *store.MemoryStore) *Service { return &Service{st: st} }

// ParseFilter builds a FilterSelection from dashboard query params.
// Granularity defaults to day (the dashboard's initial state); any
// other unknown value is rejected.
func ParseFilter(v url.Values) (models.FilterSelection, error) {
	from, err := time.Parse("2006-01-02", v.Get("from"))
	if err != nil {
		return models.FilterSelection{}, fmt.Errorf("bad from date: %w", err)
	}
	to, err := time.Parse("2006-01-02", v.Get("to"))
	if err != nil {
		return models.FilterSelection{}, fmt.Errorf("bad to date: %w", err)
	}
	g := models.Granularity(v.Get("granularity"))
	if g == "" {
		g = models.GranularityDay
	}
	f := models.FilterSelection{
		ClientID:    v.Get("client"),
		StartDate:   from,
		EndDate:     to,
		Granularity: g,
	}
	return f, f.Validate()
}

func (s *Service) Dashboard(v url.Values) ([]models.PeriodData, error) {
	f, err := ParseFilter(v)
	if err != nil {
		return nil, err
	}
	periods, err := GeneratePeriods(f)
	if err != nil {
		return nil, err
	}
	snap := s.st.Snapshot(f.ClientID)
	utils.ReportRecomputes.Inc()
	return Aggregate(f.Granularity, periods, snap.Manual, snap.Leads, snap.Conversions), nil
}

// Summary collapses the same query into one cross-period total.
func (s *Service) Summary(v url.Values) (models.TotalSummary, error) {
	rows, err := s.Dashboard(v)
	if err != nil {
		return models.TotalSummary{}, err
	}
	return Totals(rows), nil
}

var csvHeader = []string{
	"period", "start", "end",
	"meta_leads", "meta_investment", "meta_conversions", "meta_revenue",
	"google_leads", "google_investment", "google_conversions", "google_revenue",
	"direct_leads", "direct_investment", "direct_conversions", "direct_revenue",
	"total_leads", "total_investment", "total_conversions", "total_revenue",
	"cpl", "rate",
}

// WriteCSV streams the dashboard rows as CSV for the export path.
// Values are raw numbers, not display strings.
func WriteCSV(w io.Writer, rows []models.PeriodData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		rec := []string{r.Label, r.Key.Format("2006-01-02"), r.EndKey.Format("2006-01-02")}
		for _, c := range models.Channels {
			rec = append(rec, summaryFields(*r.ChannelSummaryFor(c))...)
		}
		rec = append(rec, summaryFields(r.Total.ChannelSummary)...)
		rec = append(rec,
			strconv.FormatFloat(r.Total.CPL, 'f', 2, 64),
			strconv.FormatFloat(r.Total.Rate, 'f', 4, 64),
		)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func summaryFields(s models.ChannelSummary) []string {
	return []string{
		strconv.Itoa(s.Leads),
		strconv.FormatFloat(s.Investment, 'f', 2, 64),
		strconv.Itoa(s.Conversions),
		strconv.FormatFloat(s.Revenue, 'f', 2, 64),
	}
}

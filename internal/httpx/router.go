package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agencyops/pulse/internal/ingest"
	"github.com/agencyops/pulse/internal/models"
	"github.com/agencyops/pulse/internal/report"
	"github.com/agencyops/pulse/internal/utils"
)

func NewRouter(log *slog.Logger, sync *ingest.Syncer, rSvc *report.Service) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(utils.Metrics)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.Post("/sync/run", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		client := q.Get("client")
		if client == "" {
			http.Error(w, "client required", 400)
			return
		}
		// Default window is the trailing 30 days.
		to := time.Now().UTC()
		from := to.AddDate(0, 0, -29)
		if v := q.Get("from"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, "bad from date", 400)
				return
			}
			from = t
		}
		if v := q.Get("to"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, "bad to date", 400)
				return
			}
			to = t
		}
		if err := sync.Sync(r.Context(), client, from, to); err != nil {
			http.Error(w, err.Error(), 502)
			return
		}
		w.WriteHeader(202)
		w.Write([]byte("sync complete"))
	})

	mux.Get("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		rows, err := rSvc.Dashboard(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		writeJSON(w, rows)
	})

	mux.Get("/api/dashboard/summary", func(w http.ResponseWriter, r *http.Request) {
		total, err := rSvc.Summary(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		writeJSON(w, map[string]any{
			"total":              total,
			"cpl_display":        report.FormatCurrency(total.CPL),
			"rate_display":       report.FormatPercent(total.Rate),
			"investment_display": report.FormatCurrency(total.Investment),
			"revenue_display":    report.FormatCurrency(total.Revenue),
		})
	})

	mux.Get("/api/dashboard/export", func(w http.ResponseWriter, r *http.Request) {
		rows, err := rSvc.Dashboard(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="dashboard.csv"`)
		if err := report.WriteCSV(w, rows); err != nil {
			log.Error("csv export", slog.String("err", err.Error()))
		}
	})

	mux.Put("/api/manual-metrics", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ClientID    string  `json:"client_id"`
			Date        string  `json:"date"`
			Channel     string  `json:"channel"`
			Leads       int     `json:"leads"`
			Investment  float64 `json:"investment"`
			Conversions int     `json:"conversions"`
			Revenue     float64 `json:"revenue"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if body.ClientID == "" {
			http.Error(w, "client_id required", 400)
			return
		}
		d, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			http.Error(w, "bad date (YYYY-MM-DD)", 400)
			return
		}
		ch := models.Channel(body.Channel)
		if !models.ValidChannel(ch) {
			http.Error(w, "unknown channel", 400)
			return
		}
		if body.Leads < 0 || body.Investment < 0 || body.Conversions < 0 || body.Revenue < 0 {
			http.Error(w, "metrics must be non-negative", 400)
			return
		}
		row, err := sync.PushManual(r.Context(), models.ManualMetricRow{
			ClientID:    body.ClientID,
			Date:        d,
			Channel:     ch,
			Leads:       body.Leads,
			Investment:  body.Investment,
			Conversions: body.Conversions,
			Revenue:     body.Revenue,
		})
		if err != nil {
			http.Error(w, err.Error(), 502)
			return
		}
		writeJSON(w, row)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

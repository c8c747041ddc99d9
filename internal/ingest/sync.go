package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agencyops/pulse/internal/config"
	"github.com/agencyops/pulse/internal/models"
	"github.com/agencyops/pulse/internal/store"
	"github.com/agencyops/pulse/internal/utils"
)

// Syncer pulls a client's three row collections from the agency data
// API into the snapshot store and pushes manual-row edits back.
type Syncer struct {
	c   HTTPClient
	st  *store.MemoryStore
	log *slog.Logger
	cfg config.Config
}

func NewSyncer(c HTTPClient, st *store.MemoryStore, log *slog.Logger, cfg config.Config) *Syncer {
	return &Syncer{c: c, st: st, log: log, cfg: cfg}
}

type manualRowResp []struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Channel     string    `json:"channel"`
	Leads       int       `json:"leads"`
	Investment  float64   `json:"investment"`
	Conversions int       `json:"conversions"`
	Revenue     float64   `json:"revenue"`
}

type leadResp []struct {
	CreatedAt string `json:"createdAt"`
	UTMSource string `json:"utmSource"`
}

type conversionResp []struct {
	CreatedAt string    `json:"createdAt"`
	DealValue flexFloat `json:"dealValue"`
}

// flexFloat tolerates the data API sending deal values as numbers,
// quoted strings, or null. Unparsable or negative values become zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

func (s *Syncer) headers() http.Header {
	h := http.Header{}
	if s.cfg.DataAPIKey != "" {
		h.Set("X-API-Key", s.cfg.DataAPIKey)
	}
	return h
}

func (s *Syncer) collectionURL(client, collection string, from, to time.Time) string {
	return fmt.Sprintf("%s/clients/%s/%s?from=%s&to=%s",
		strings.TrimRight(s.cfg.DataAPIURL, "/"),
		url.PathEscape(client), collection,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// Sync refreshes the client's snapshot for the given range. The three
// fetches are independent: each collection is swapped as soon as its
// fetch resolves, and a failed fetch leaves the previous snapshot of
// that collection intact. The dashboard always recomputes in full from
// whatever is current, so resolution order does not change the final
// result.
func (s *Syncer) Sync(ctx context.Context, client string, from, to time.Time) error {
	var errs []error

	var mResp manualRowResp
	if err := GetJSONWithRetry(ctx, s.c, s.collectionURL(client, "manual-metrics", from, to), s.headers(), &mResp); err != nil {
		utils.SyncFailures.WithLabelValues("manual-metrics").Inc()
		errs = append(errs, fmt.Errorf("manual metrics: %w", err))
	} else {
		rows := make([]models.ManualMetricRow, 0, len(mResp))
		for _, r := range mResp {
			d, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
			if err != nil {
				s.log.Debug("dropping manual row with bad date", slog.String("date", r.Date))
				continue
			}
			ch := models.Channel(strings.ToLower(strings.TrimSpace(r.Channel)))
			if !models.ValidChannel(ch) {
				s.log.Debug("dropping manual row with unknown channel", slog.String("channel", r.Channel))
				continue
			}
			rows = append(rows, models.ManualMetricRow{
				ID:          r.ID,
				ClientID:    client,
				Date:        d,
				Channel:     ch,
				Leads:       max0(r.Leads),
				Investment:  maxf(r.Investment),
				Conversions: max0(r.Conversions),
				Revenue:     maxf(r.Revenue),
			})
		}
		s.st.ReplaceManual(client, rows)
	}

	var lResp leadResp
	if err := GetJSONWithRetry(ctx, s.c, s.collectionURL(client, "leads", from, to), s.headers(), &lResp); err != nil {
		utils.SyncFailures.WithLabelValues("leads").Inc()
		errs = append(errs, fmt.Errorf("leads: %w", err))
	} else {
		rows := make([]models.Lead, 0, len(lResp))
		for _, r := range lResp {
			d, err := time.Parse(time.RFC3339, strings.TrimSpace(r.CreatedAt))
			if err != nil {
				s.log.Debug("dropping lead with bad createdAt", slog.String("createdAt", r.CreatedAt))
				continue
			}
			rows = append(rows, models.Lead{CreatedAt: d, UTMSource: strings.TrimSpace(r.UTMSource)})
		}
		s.st.ReplaceLeads(client, rows)
	}

	var cResp conversionResp
	if err := GetJSONWithRetry(ctx, s.c, s.collectionURL(client, "conversions", from, to), s.headers(), &cResp); err != nil {
		utils.SyncFailures.WithLabelValues("conversions").Inc()
		errs = append(errs, fmt.Errorf("conversions: %w", err))
	} else {
		rows := make([]models.Conversion, 0, len(cResp))
		for _, r := range cResp {
			d, err := time.Parse(time.RFC3339, strings.TrimSpace(r.CreatedAt))
			if err != nil {
				s.log.Debug("dropping conversion with bad createdAt", slog.String("createdAt", r.CreatedAt))
				continue
			}
			// TODO: attribute by UTM once the CRM webhook forwards source
			// fields; every ingested conversion lands on meta for now.
			rows = append(rows, models.Conversion{
				CreatedAt: d,
				DealValue: float64(r.DealValue),
				Channel:   models.ChannelMeta,
			})
		}
		s.st.ReplaceConversions(client, rows)
	}

	snap := s.st.Snapshot(client)
	s.log.Info("sync complete",
		slog.String("client", client),
		slog.Int("manual", len(snap.Manual)),
		slog.Int("leads", len(snap.Leads)),
		slog.Int("conversions", len(snap.Conversions)))
	return errors.Join(errs...)
}

// PushManual applies a manual-row edit optimistically to the local
// snapshot, writes it through to the data API, and rolls the local
// change back if the remote write fails.
func (s *Syncer) PushManual(ctx context.Context, row models.ManualMetricRow) (models.ManualMetricRow, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	prev, _ := s.st.UpsertManual(row.ClientID, row)

	body, err := json.Marshal(map[string]any{
		"id":          row.ID,
		"date":        row.Date.Format("2006-01-02"),
		"channel":     row.Channel,
		"leads":       row.Leads,
		"investment":  row.Investment,
		"conversions": row.Conversions,
		"revenue":     row.Revenue,
	})
	if err != nil {
		s.st.RestoreManual(row.ClientID, row, prev)
		return models.ManualMetricRow{}, err
	}

	u := fmt.Sprintf("%s/clients/%s/manual-metrics",
		strings.TrimRight(s.cfg.DataAPIURL, "/"), url.PathEscape(row.ClientID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		s.st.RestoreManual(row.ClientID, row, prev)
		return models.ManualMetricRow{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.DataAPIKey != "" {
		req.Header.Set("X-API-Key", s.cfg.DataAPIKey)
	}

	resp, err := s.c.Do(req)
	if err != nil {
		s.st.RestoreManual(row.ClientID, row, prev)
		return models.ManualMetricRow{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.st.RestoreManual(row.ClientID, row, prev)
		return models.ManualMetricRow{}, fmt.Errorf("manual metric write: %s", resp.Status)
	}
	return row, nil
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

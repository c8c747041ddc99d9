package models

import (
	"fmt"
	"strings"
	"time"
)

// Channel is one of the fixed attribution buckets the dashboard reports on.
type Channel string

const (
	ChannelMeta   Channel = "meta"
	ChannelGoogle Channel = "google"
	ChannelDirect Channel = "direct"
)

// Channels lists every channel in display order.
var Channels = []Channel{ChannelMeta, ChannelGoogle, ChannelDirect}

func ValidChannel(c Channel) bool {
	switch c {
	case ChannelMeta, ChannelGoogle, ChannelDirect:
		return true
	}
	return false
}

// ClassifyUTMSource maps a free-text UTM source onto a channel by
// case-insensitive substring match. facebook/instagram take precedence
// over google; anything unmatched (or empty) is direct. Best-effort
// heuristic, not a correctness guarantee.
func ClassifyUTMSource(src string) Channel {
	s := strings.ToLower(strings.TrimSpace(src))
	switch {
	case strings.Contains(s, "facebook") || strings.Contains(s, "instagram"):
		return ChannelMeta
	case strings.Contains(s, "google"):
		return ChannelGoogle
	default:
		return ChannelDirect
	}
}

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// FilterSelection is the immutable dashboard filter: one client, an
// inclusive date range and a bucket granularity.
type FilterSelection struct {
	ClientID    string
	StartDate   time.Time
	EndDate     time.Time
	Granularity Granularity
}

func (f FilterSelection) Validate() error {
	if f.ClientID == "" {
		return fmt.Errorf("client id required")
	}
	switch f.Granularity {
	case GranularityDay, GranularityWeek, GranularityMonth:
	default:
		return fmt.Errorf("invalid granularity %q", f.Granularity)
	}
	if f.StartDate.IsZero() || f.EndDate.IsZero() {
		return fmt.Errorf("start and end dates required")
	}
	if f.StartDate.After(f.EndDate) {
		return fmt.Errorf("start date %s after end date %s",
			f.StartDate.Format("2006-01-02"), f.EndDate.Format("2006-01-02"))
	}
	return nil
}

// ManualMetricRow is a user-entered daily record for one channel.
// Identity is (client, date, channel); a new write for an existing
// triple replaces the previous row.
type ManualMetricRow struct {
	ID          string    `json:"id,omitempty"`
	ClientID    string    `json:"client_id"`
	Date        time.Time `json:"date"`
	Channel     Channel   `json:"channel"`
	Leads       int       `json:"leads"`
	Investment  float64   `json:"investment"`
	Conversions int       `json:"conversions"`
	Revenue     float64   `json:"revenue"`
}

// Lead is one marketing-originated contact from the ingestion feed.
type Lead struct {
	CreatedAt time.Time `json:"created_at"`
	UTMSource string    `json:"utm_source"`
}

func (l Lead) Channel() Channel { return ClassifyUTMSource(l.UTMSource) }

// Conversion is one closed deal attributed to marketing.
type Conversion struct {
	CreatedAt time.Time `json:"created_at"`
	DealValue float64   `json:"deal_value"`
	Channel   Channel   `json:"channel"`
}

// Period is a single time bucket. Key is the first day covered, EndKey
// the last (inclusive); both are day-normalized UTC.
type Period struct {
	Label  string    `json:"label"`
	Key    time.Time `json:"key"`
	EndKey time.Time `json:"end_key"`
}

// ChannelSummary holds the four reconciled metrics for one channel.
type ChannelSummary struct {
	Leads       int     `json:"leads"`
	Investment  float64 `json:"investment"`
	Conversions int     `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

func (s *ChannelSummary) Add(o ChannelSummary) {
	s.Leads += o.Leads
	s.Investment += o.Investment
	s.Conversions += o.Conversions
	s.Revenue += o.Revenue
}

// TotalSummary rolls the three channels up and carries the two derived
// ratios. CPL and Rate are 0 when there are no leads, never NaN/Inf.
type TotalSummary struct {
	ChannelSummary
	CPL  float64 `json:"cpl"`
	Rate float64 `json:"rate"`
}

// PeriodData is one dashboard row: one bucket, three channel summaries
// and the rolled-up total.
type PeriodData struct {
	Period
	Meta   ChannelSummary `json:"meta"`
	Google ChannelSummary `json:"google"`
	Direct ChannelSummary `json:"direct"`
	Total  TotalSummary   `json:"total"`
}

// ChannelSummaryFor returns a pointer to the summary for c so the
// aggregator can accumulate into it.
func (p *PeriodData) ChannelSummaryFor(c Channel) *ChannelSummary {
	switch c {
	case ChannelMeta:
		return &p.Meta
	case ChannelGoogle:
		return &p.Google
	default:
		return &p.Direct
	}
}

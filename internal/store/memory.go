package store

import (
	"sort"
	"sync"
	"time"

	"github.com/agencyops/pulse/internal/models"
)

// Snapshot is the point-in-time view of one client's rows the report
// layer aggregates over. The remote data API stays the source of
// truth; refreshes replace whole collections, never patch them.
type Snapshot struct {
	Manual      []models.ManualMetricRow
	Leads       []models.Lead
	Conversions []models.Conversion
}

type manualKey struct {
	date    time.Time
	channel models.Channel
}

type clientData struct {
	manual      map[manualKey]models.ManualMetricRow
	leads       []models.Lead
	conversions []models.Conversion
}

// MemoryStore keeps per-client snapshots behind one RWMutex. The three
// collections are swapped independently as their fetches resolve.
type MemoryStore struct {
	mu      sync.RWMutex
	clients map[string]*clientData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clients: make(map[string]*clientData)}
}

func (s *MemoryStore) client(id string) *clientData {
	cd, ok := s.clients[id]
	if !ok {
		cd = &clientData{manual: make(map[manualKey]models.ManualMetricRow)}
		s.clients[id] = cd
	}
	return cd
}

func keyOf(r models.ManualMetricRow) manualKey {
	return manualKey{date: dayUTC(r.Date), channel: r.Channel}
}

// ReplaceManual swaps the client's manual rows. Rows sharing a
// (date, channel) identity collapse to the last one, matching the
// upsert semantics of the remote table.
func (s *MemoryStore) ReplaceManual(client string, rows []models.ManualMetricRow) {
	m := make(map[manualKey]models.ManualMetricRow, len(rows))
	for _, r := range rows {
		r.Date = dayUTC(r.Date)
		m[keyOf(r)] = r
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client(client).manual = m
}

func (s *MemoryStore) ReplaceLeads(client string, rows []models.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client(client).leads = append([]models.Lead(nil), rows...)
}

func (s *MemoryStore) ReplaceConversions(client string, rows []models.Conversion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client(client).conversions = append([]models.Conversion(nil), rows...)
}

// UpsertManual applies one row locally and returns what it replaced so
// a failed remote write can be rolled back with RestoreManual.
func (s *MemoryStore) UpsertManual(client string, row models.ManualMetricRow) (prev *models.ManualMetricRow, existed bool) {
	row.Date = dayUTC(row.Date)
	s.mu.Lock()
	defer s.mu.Unlock()
	cd := s.client(client)
	k := keyOf(row)
	if old, ok := cd.manual[k]; ok {
		cp := old
		prev, existed = &cp, true
	}
	cd.manual[k] = row
	return prev, existed
}

// RestoreManual undoes an optimistic upsert: prev == nil deletes the
// row, otherwise the previous value is put back.
func (s *MemoryStore) RestoreManual(client string, row models.ManualMetricRow, prev *models.ManualMetricRow) {
	row.Date = dayUTC(row.Date)
	s.mu.Lock()
	defer s.mu.Unlock()
	cd := s.client(client)
	k := keyOf(row)
	if prev == nil {
		delete(cd.manual, k)
		return
	}
	cd.manual[k] = *prev
}

// Snapshot returns copies of the client's collections, manual rows in
// (date, channel) order so downstream output is deterministic.
func (s *MemoryStore) Snapshot(client string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cd, ok := s.clients[client]
	if !ok {
		return Snapshot{}
	}
	snap := Snapshot{
		Manual:      make([]models.ManualMetricRow, 0, len(cd.manual)),
		Leads:       append([]models.Lead(nil), cd.leads...),
		Conversions: append([]models.Conversion(nil), cd.conversions...),
	}
	for _, r := range cd.manual {
		snap.Manual = append(snap.Manual, r)
	}
	sort.Slice(snap.Manual, func(i, j int) bool {
		a, b := snap.Manual[i], snap.Manual[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Channel < b.Channel
	})
	return snap
}

func dayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

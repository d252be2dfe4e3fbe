// Package storagetest provides an in-memory storage.Store for tests.
package storagetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// MemoryStore keeps every feed in memory. Reads honor ctx cancellation, can
// be made to fail with FailWith, and are counted per method.
type MemoryStore struct {
	mu          sync.RWMutex
	attendance  []types.AttendanceRecord
	presence    []types.AgentPresence
	alerts      []types.SystemAlert
	predictions map[string]types.PredictionPayload
	rankings    []types.RankingEntry
	transfers   []types.TransferLog
	err         error
	calls       map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		predictions: make(map[string]types.PredictionPayload),
		calls:       make(map[string]int),
	}
}

func (s *MemoryStore) SetAttendance(records []types.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance = append([]types.AttendanceRecord(nil), records...)
}

func (s *MemoryStore) SetPresence(presence []types.AgentPresence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence = append([]types.AgentPresence(nil), presence...)
}

func (s *MemoryStore) SetAlerts(alerts []types.SystemAlert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append([]types.SystemAlert(nil), alerts...)
}

func (s *MemoryStore) PutPrediction(p types.PredictionPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictions[string(p.Type)+"#"+p.ReferenceDate] = p
}

func (s *MemoryStore) SetRankings(entries []types.RankingEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankings = append([]types.RankingEntry(nil), entries...)
}

func (s *MemoryStore) SetTransfers(logs []types.TransferLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = append([]types.TransferLog(nil), logs...)
}

// FailWith makes every read return err until cleared with nil
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns how many times the named read ran
func (s *MemoryStore) Calls(method string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[method]
}

func (s *MemoryStore) begin(ctx context.Context, method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.err
}

func (s *MemoryStore) GetAttendance(ctx context.Context, from, to time.Time) ([]types.AttendanceRecord, error) {
	if err := s.begin(ctx, "GetAttendance"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.AttendanceRecord
	for _, r := range s.attendance {
		if r.CreatedAt.Before(from) || !r.CreatedAt.Before(to) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetPresence(ctx context.Context) ([]types.AgentPresence, error) {
	if err := s.begin(ctx, "GetPresence"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.AgentPresence(nil), s.presence...), nil
}

func (s *MemoryStore) GetActiveAlerts(ctx context.Context, since time.Time) ([]types.SystemAlert, error) {
	if err := s.begin(ctx, "GetActiveAlerts"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.SystemAlert
	for _, a := range s.alerts {
		if a.Resolved || a.Timestamp.Before(since) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *MemoryStore) GetPrediction(ctx context.Context, kind types.PredictionType, date string) (*types.PredictionPayload, error) {
	if err := s.begin(ctx, "GetPrediction"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.predictions[string(kind)+"#"+date]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) GetRanking(ctx context.Context, period types.RankingPeriod, date string) ([]types.RankingEntry, error) {
	if err := s.begin(ctx, "GetRanking"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.RankingEntry
	for _, e := range s.rankings {
		if e.Period == period && e.ReferenceDate == date {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetTransfers(ctx context.Context, agentID string, from, to time.Time) ([]types.TransferLog, error) {
	if err := s.begin(ctx, "GetTransfers"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.TransferLog
	for _, t := range s.transfers {
		if t.FromAgent != agentID && t.ToAgent != agentID {
			continue
		}
		if t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Close() {}

package storage

import (
	"context"
	"time"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// Store is the read side of the feeds the dashboard is built from.
// Range queries are half-open: from <= t < to.
type Store interface {
	GetAttendance(ctx context.Context, from, to time.Time) ([]types.AttendanceRecord, error)
	GetPresence(ctx context.Context) ([]types.AgentPresence, error)
	GetActiveAlerts(ctx context.Context, since time.Time) ([]types.SystemAlert, error)
	// GetPrediction returns nil without error when no forecast exists
	GetPrediction(ctx context.Context, kind types.PredictionType, date string) (*types.PredictionPayload, error)
	GetRanking(ctx context.Context, period types.RankingPeriod, date string) ([]types.RankingEntry, error)
	GetTransfers(ctx context.Context, agentID string, from, to time.Time) ([]types.TransferLog, error)
	Close()
}

// NoopStore is a no-op implementation when no backing store is configured
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) GetAttendance(_ context.Context, _, _ time.Time) ([]types.AttendanceRecord, error) {
	return nil, nil
}
func (s *NoopStore) GetPresence(_ context.Context) ([]types.AgentPresence, error) { return nil, nil }
func (s *NoopStore) GetActiveAlerts(_ context.Context, _ time.Time) ([]types.SystemAlert, error) {
	return nil, nil
}
func (s *NoopStore) GetPrediction(_ context.Context, _ types.PredictionType, _ string) (*types.PredictionPayload, error) {
	return nil, nil
}
func (s *NoopStore) GetRanking(_ context.Context, _ types.RankingPeriod, _ string) ([]types.RankingEntry, error) {
	return nil, nil
}
func (s *NoopStore) GetTransfers(_ context.Context, _ string, _, _ time.Time) ([]types.TransferLog, error) {
	return nil, nil
}
func (s *NoopStore) Close() {}

package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/storage"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

var _ storage.Store = (*MemoryStore)(nil)

func TestMemoryStoreRanges(t *testing.T) {
	s := NewMemoryStore()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	s.SetAttendance([]types.AttendanceRecord{
		{ID: "before", CreatedAt: day.Add(-time.Second)},
		{ID: "start", CreatedAt: day},
		{ID: "end", CreatedAt: day.Add(24 * time.Hour)},
	})
	s.SetAlerts([]types.SystemAlert{
		{ID: "open", Timestamp: day},
		{ID: "resolved", Timestamp: day, Resolved: true},
	})

	ctx := context.Background()
	records, _ := s.GetAttendance(ctx, day, day.Add(24*time.Hour))
	if len(records) != 1 || records[0].ID != "start" {
		t.Errorf("expected only the start record, got %+v", records)
	}

	alerts, _ := s.GetActiveAlerts(ctx, day)
	if len(alerts) != 1 || alerts[0].ID != "open" {
		t.Errorf("expected only the open alert, got %+v", alerts)
	}

	p, err := s.GetPrediction(ctx, types.PredictionHourly, "2026-03-10")
	if p != nil || err != nil {
		t.Errorf("expected no prediction, got %v, %v", p, err)
	}

	boom := errors.New("boom")
	s.FailWith(boom)
	if _, err := s.GetPresence(ctx); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	if s.Calls("GetAttendance") != 1 {
		t.Errorf("expected 1 attendance call, got %d", s.Calls("GetAttendance"))
	}
}

func TestMemoryStoreOrdersByCreation(t *testing.T) {
	s := NewMemoryStore()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	s.SetAttendance([]types.AttendanceRecord{
		{ID: "a", CreatedAt: day.Add(10 * time.Hour)},
		{ID: "b", CreatedAt: day.Add(9 * time.Hour)},
	})
	s.SetTransfers([]types.TransferLog{
		{ID: "t-a", FromAgent: "Ana", CreatedAt: day.Add(11 * time.Hour)},
		{ID: "t-b", ToAgent: "Ana", CreatedAt: day.Add(10 * time.Hour)},
	})

	ctx := context.Background()
	records, _ := s.GetAttendance(ctx, day, day.Add(24*time.Hour))
	if len(records) != 2 || records[0].ID != "b" {
		t.Errorf("expected records oldest first, got %+v", records)
	}
	logs, _ := s.GetTransfers(ctx, "Ana", day, day.Add(24*time.Hour))
	if len(logs) != 2 || logs[0].ID != "t-b" {
		t.Errorf("expected transfers oldest first, got %+v", logs)
	}
}

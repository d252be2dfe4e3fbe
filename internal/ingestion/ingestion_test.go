package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/metrics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/schema"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/state"
)

type fakeRefresher struct {
	mu    sync.Mutex
	feeds []state.Feed
	block chan struct{}
}

func (f *fakeRefresher) Refresh(ctx context.Context, feed state.Feed) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds = append(f.feeds, feed)
}

func (f *fakeRefresher) count(feed state.Feed) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, got := range f.feeds {
		if got == feed {
			n++
		}
	}
	return n
}

func newTestTrigger(r Refresher) *Trigger {
	return NewTrigger(r, schema.Default(), metrics.New(), zerolog.New(&bytes.Buffer{}))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestFeedForTable(t *testing.T) {
	trig := newTestTrigger(&fakeRefresher{})
	c := schema.Default()

	tests := []struct {
		table  string
		want   state.Feed
		wantOK bool
	}{
		{"", state.FeedTickets, true},
		{c.Attendance.Table, state.FeedTickets, true},
		{c.Presence.Table, state.FeedPresence, true},
		{c.Alerts.Table, state.FeedAlerts, true},
		{c.Predictions.Table, state.FeedForecast, true},
		{c.Rankings.Table, state.FeedRanking, true},
		{c.Transfers.Table, "", false},
		{"faqs", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			got, ok := trig.FeedForTable(tt.table)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FeedForTable(%q) = %q, %v; want %q, %v", tt.table, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTriggerCoalesces(t *testing.T) {
	r := &fakeRefresher{block: make(chan struct{})}
	trig := newTestTrigger(r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go trig.Run(ctx)

	// the first request is picked up and blocks inside Refresh
	trig.Fire("test", state.FeedTickets)
	waitFor(t, func() bool { return len(trig.pending[state.FeedTickets]) == 0 })

	// the rest collapse into one pending request
	for i := 0; i < 10; i++ {
		if !trig.Fire("test", state.FeedTickets) {
			t.Fatal("expected tickets feed to be accepted")
		}
	}
	close(r.block)

	waitFor(t, func() bool { return r.count(state.FeedTickets) == 2 })
	time.Sleep(50 * time.Millisecond)
	if n := r.count(state.FeedTickets); n != 2 {
		t.Errorf("expected 2 refreshes, got %d", n)
	}

	if trig.Fire("test", state.Feed("unknown")) {
		t.Error("unknown feed must be rejected")
	}
}

func TestHandleRefresh(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFeed   string
		wantQueued bool
	}{
		{
			name:       "attendance insert",
			body:       `{"type":"INSERT","table":"atendimentos","schema":"public","record":{"id":1}}`,
			wantStatus: http.StatusAccepted,
			wantFeed:   "tickets",
			wantQueued: true,
		},
		{
			name:       "presence update",
			body:       `{"type":"UPDATE","table":"agent_presence"}`,
			wantStatus: http.StatusAccepted,
			wantFeed:   "presence",
			wantQueued: true,
		},
		{
			name:       "empty body",
			body:       "",
			wantStatus: http.StatusAccepted,
			wantFeed:   "tickets",
			wantQueued: true,
		},
		{
			name:       "unwatched table",
			body:       `{"type":"INSERT","table":"faqs"}`,
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "invalid json",
			body:       `{"type":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trig := newTestTrigger(&fakeRefresher{})
			recv := NewWebhookReceiver(trig, zerolog.New(&bytes.Buffer{}))

			req := httptest.NewRequest(http.MethodPost, "/internal/refresh", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			recv.HandleRefresh(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus != http.StatusAccepted {
				return
			}

			var resp refreshResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.DeliveryID == "" {
				t.Error("expected a delivery id")
			}
			if resp.Feed != tt.wantFeed || resp.Queued != tt.wantQueued {
				t.Errorf("got feed %q queued %v, want %q %v", resp.Feed, resp.Queued, tt.wantFeed, tt.wantQueued)
			}
		})
	}
}

func TestWebhookStats(t *testing.T) {
	recv := NewWebhookReceiver(newTestTrigger(&fakeRefresher{}), zerolog.New(&bytes.Buffer{}))

	for _, body := range []string{`{"table":"atendimentos"}`, `{"table":"faqs"}`} {
		req := httptest.NewRequest(http.MethodPost, "/internal/refresh", strings.NewReader(body))
		recv.HandleRefresh(httptest.NewRecorder(), req)
	}

	rr := httptest.NewRecorder()
	recv.GetStats(rr, httptest.NewRequest(http.MethodGet, "/internal/refresh/stats", nil))

	var stats map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats["webhooks_received"] != float64(2) {
		t.Errorf("expected 2 received, got %v", stats["webhooks_received"])
	}
	if stats["webhooks_ignored"] != float64(1) {
		t.Errorf("expected 1 ignored, got %v", stats["webhooks_ignored"])
	}
}

func TestMessageTable(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"flat", `{"table":"atendimentos"}`, "atendimentos"},
		{"debezium", `{"source":{"table":"agent_presence"},"op":"u"}`, "agent_presence"},
		{"debezium with schema", `{"schema":{},"payload":{"source":{"table":"system_alerts"}}}`, "system_alerts"},
		{"no table", `{"id":1}`, ""},
		{"not json", `hello`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := messageTable([]byte(tt.value)); got != tt.want {
				t.Errorf("messageTable() = %q, want %q", got, tt.want)
			}
		})
	}
}

type fakeReader struct {
	messages []kafka.Message
	errs     []error
	closed   bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return kafka.Message{}, err
	}
	if len(f.messages) > 0 {
		m := f.messages[0]
		f.messages = f.messages[1:]
		return m, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestKafkaTrigger(t *testing.T) {
	trig := newTestTrigger(&fakeRefresher{})
	reader := &fakeReader{
		errs: []error{errors.New("broker not available")},
		messages: []kafka.Message{
			{Value: []byte(`{"table":"agent_presence"}`)},
			{Value: []byte(`{"table":"faqs"}`)},
			{Value: []byte(`{"id":42}`)},
		},
	}
	k := newKafkaTrigger(reader, trig, zerolog.New(&bytes.Buffer{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		k.Start(ctx)
		close(done)
	}()

	waitFor(t, func() bool {
		return len(trig.pending[state.FeedPresence]) == 1 && len(trig.pending[state.FeedTickets]) == 1
	})
	if len(trig.pending[state.FeedAlerts]) != 0 {
		t.Error("unexpected alerts refresh")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("kafka consumer did not stop after context cancel")
	}

	if err := k.Close(); err != nil || !reader.closed {
		t.Error("expected reader to be closed")
	}
}

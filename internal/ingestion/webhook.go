package ingestion

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const maxWebhookBody = 1 << 20

// WebhookReceiver handles Supabase database webhooks. The payload is
// {"type": "INSERT", "table": "...", "record": {...}, "old_record": {...}};
// only the table is used.
type WebhookReceiver struct {
	trigger *Trigger
	logger  zerolog.Logger

	received     int64
	ignored      int64
	lastReceived time.Time
	mu           sync.RWMutex
}

// NewWebhookReceiver creates a new webhook receiver
func NewWebhookReceiver(trigger *Trigger, logger zerolog.Logger) *WebhookReceiver {
	return &WebhookReceiver{
		trigger: trigger,
		logger:  logger,
	}
}

type refreshResponse struct {
	DeliveryID string `json:"deliveryId"`
	Feed       string `json:"feed,omitempty"`
	Queued     bool   `json:"queued"`
}

// HandleRefresh queues a refresh of the feed backing the changed table
// POST /internal/refresh
func (r *WebhookReceiver) HandleRefresh(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > 0 && !gjson.ValidBytes(body) {
		r.logger.Warn().Int("bytes", len(body)).Msg("invalid webhook payload")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	deliveryID := uuid.New().String()
	table := gjson.GetBytes(body, "table").String()
	logger := r.logger.With().
		Str("delivery_id", deliveryID).
		Str("table", table).
		Str("op", gjson.GetBytes(body, "type").String()).
		Logger()

	atomic.AddInt64(&r.received, 1)
	r.mu.Lock()
	r.lastReceived = time.Now()
	r.mu.Unlock()

	resp := refreshResponse{DeliveryID: deliveryID}
	feed, ok := r.trigger.FeedForTable(table)
	if ok {
		resp.Feed = string(feed)
		resp.Queued = r.trigger.Fire("webhook", feed)
	}
	if !resp.Queued {
		atomic.AddInt64(&r.ignored, 1)
		logger.Debug().Msg("webhook for unwatched table ignored")
	} else {
		logger.Debug().Str("feed", resp.Feed).Msg("refresh queued")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(resp)
}

// GetStats returns receiver statistics
func (r *WebhookReceiver) GetStats(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	lastReceived := r.lastReceived
	r.mu.RUnlock()

	stats := map[string]interface{}{
		"webhooks_received": atomic.LoadInt64(&r.received),
		"webhooks_ignored":  atomic.LoadInt64(&r.ignored),
		"last_received":     lastReceived,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

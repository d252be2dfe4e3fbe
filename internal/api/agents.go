package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/aggregator"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/state"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/storage"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// AgentHandler provides REST endpoints for per-agent data
type AgentHandler struct {
	store      storage.Store
	state      *state.Container
	aggregator *aggregator.Aggregator
	logger     zerolog.Logger
}

// NewAgentHandler creates a new AgentHandler
func NewAgentHandler(store storage.Store, st *state.Container, agg *aggregator.Aggregator, logger zerolog.Logger) *AgentHandler {
	return &AgentHandler{
		store:      store,
		state:      st,
		aggregator: agg,
		logger:     logger.With().Str("component", "agent_handler").Logger(),
	}
}

// GetRanking returns the stored ranking entries for a period
// GET /api/agents/ranking?period=today|month
func (h *AgentHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(r.URL.Query().Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, "period must be today or month")
		return
	}

	writeJSON(w, http.StatusOK, h.aggregator.Rankings(period))
}

// GetTransfers returns the transfers an agent made or received on a date
// GET /api/agents/{agentId}/transfers?date=YYYY-MM-DD
func (h *AgentHandler) GetTransfers(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agentId is required")
		return
	}

	date := r.URL.Query().Get("date")
	day, err := h.state.ParseDate(date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	from, to := state.View{Date: day, Mode: types.ViewDaily}.Range()
	logs, err := h.store.GetTransfers(r.Context(), agentID, from, to)
	if err != nil {
		h.logger.Error().Err(err).
			Str("agent_id", agentID).
			Str("date", day.Format(state.DateLayout)).
			Msg("failed to get transfers")
		writeError(w, http.StatusInternalServerError, "failed to retrieve transfers")
		return
	}

	if logs == nil {
		logs = []types.TransferLog{}
	}

	writeJSON(w, http.StatusOK, logs)
}

// parsePeriod validates a ranking period; empty means today
func parsePeriod(s string) (types.RankingPeriod, bool) {
	switch types.RankingPeriod(s) {
	case "", types.PeriodToday:
		return types.PeriodToday, true
	case types.PeriodMonth:
		return types.PeriodMonth, true
	default:
		return "", false
	}
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/aggregator"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/analytics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/state"
)

// ViewLoader loads feeds for a view
type ViewLoader interface {
	// Reload refetches every feed for the active view
	Reload(ctx context.Context)
	// FetchView reads another view without changing the active one
	FetchView(ctx context.Context, view state.View) (state.Snapshot, error)
}

// DashboardHandler serves the dashboard view models
type DashboardHandler struct {
	state      *state.Container
	loader     ViewLoader
	aggregator *aggregator.Aggregator
	logger     zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(st *state.Container, loader ViewLoader, agg *aggregator.Aggregator, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		state:      st,
		loader:     loader,
		aggregator: agg,
		logger:     logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// ViewRequest is the body of PUT /api/view
type ViewRequest struct {
	Date   string  `json:"date"`
	View   string  `json:"view"`
	Search *string `json:"q,omitempty"`
}

// parseView resolves date and view, falling back to the active view for
// empty values
func (h *DashboardHandler) parseView(date, mode string) (state.View, error) {
	current := h.state.View()

	view := current
	if date != "" {
		d, err := h.state.ParseDate(date)
		if err != nil {
			return state.View{}, err
		}
		view.Date = d
	}
	if mode != "" {
		m, err := analytics.ParseViewMode(mode)
		if err != nil {
			return state.View{}, err
		}
		view.Mode = m
	}
	return view, nil
}

// GetDashboard returns a dashboard snapshot. Without parameters it is the
// snapshot of the active view; a different date or view is read ad hoc.
// GET /api/dashboard?date=YYYY-MM-DD&view=daily|monthly&q=
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	view, err := h.parseView(query.Get("date"), query.Get("view"))
	if err != nil {
		writeViewError(w, err)
		return
	}

	var snap state.Snapshot
	if current := h.state.View(); view.Mode == current.Mode && view.Date.Equal(current.Date) {
		snap = h.state.Snapshot()
	} else {
		snap, err = h.loader.FetchView(r.Context(), view)
		if err != nil {
			h.logger.Error().Err(err).
				Str("date", view.Date.Format(state.DateLayout)).
				Str("view", string(view.Mode)).
				Msg("failed to load view")
			writeError(w, http.StatusInternalServerError, "failed to load dashboard")
			return
		}
	}

	if query.Has("q") {
		snap.Search = query.Get("q")
	}

	writeJSON(w, http.StatusOK, h.aggregator.Build(snap))
}

// PutView switches the active view, reloads its feeds and returns the new
// snapshot. Polling runs only while the view is today's daily view.
// PUT /api/view
func (h *DashboardHandler) PutView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.parseView(req.Date, req.View)
	if err != nil {
		writeViewError(w, err)
		return
	}

	if req.Search != nil {
		h.state.SetSearch(*req.Search)
	}

	if h.state.SetView(view.Date, view.Mode) {
		h.logger.Info().
			Str("date", view.Date.Format(state.DateLayout)).
			Str("view", string(view.Mode)).
			Msg("view changed")
		h.loader.Reload(r.Context())
	}

	writeJSON(w, http.StatusOK, h.aggregator.Dashboard())
}

// GetWarRoom returns the filtered, paginated war-room view. Changing the
// agent or search resets the page to 1.
// GET /api/warroom?agent=&q=&page=
func (h *DashboardHandler) GetWarRoom(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 0
	if p := query.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	filter := h.state.UpdateWarRoom(query.Get("agent"), query.Get("q"), page)
	writeJSON(w, http.StatusOK, h.aggregator.WarRoom(filter))
}

// GetClients returns the client map filtered by q
// GET /api/clients?q=
func (h *DashboardHandler) GetClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.aggregator.Clients(r.URL.Query().Get("q")))
}

// GetPresence returns the presence panel
// GET /api/presence
func (h *DashboardHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.aggregator.Presence())
}

// GetAlerts returns the active system alerts
// GET /api/alerts
func (h *DashboardHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.aggregator.Alerts())
}

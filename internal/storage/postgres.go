package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/schema"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// PostgresStore reads the feeds from the Supabase Postgres database.
// Table and column names come from the schema contract.
type PostgresStore struct {
	pool    *pgxpool.Pool
	queries queries
	logger  zerolog.Logger
}

type queries struct {
	attendance string
	presence   string
	alerts     string
	prediction string
	ranking    string
	transfers  string
}

// NewPostgresStore opens a connection pool and verifies it with a ping
func NewPostgresStore(ctx context.Context, dsn string, contract schema.Contract, logger zerolog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	logger.Info().
		Str("schema_version", contract.Version).
		Str("attendance_table", contract.Attendance.Table).
		Msg("Postgres store initialized")

	return &PostgresStore{
		pool:    pool,
		queries: buildQueries(contract),
		logger:  logger,
	}, nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func buildQueries(c schema.Contract) queries {
	a := c.Attendance
	p := c.Presence
	al := c.Alerts
	pr := c.Predictions
	r := c.Rankings
	t := c.Transfers

	return queries{
		attendance: fmt.Sprintf(`
	SELECT
		%s::text, coalesce(%s::text, ''), coalesce(%s::text, ''), coalesce(%s::text, ''),
		coalesce(%s::text, ''), %s::text, %s, %s, %s::int, coalesce(%s::text, '')
	FROM %s
	WHERE %s >= $1 AND %s < $2
	ORDER BY %s`,
			ident(a.ID), ident(a.AgentID), ident(a.CustomerName), ident(a.Phone),
			ident(a.Status), ident(a.Motive), ident(a.CreatedAt), ident(a.UpdatedAt), ident(a.Rating), ident(a.Origin),
			ident(a.Table),
			ident(a.CreatedAt), ident(a.CreatedAt),
			ident(a.CreatedAt)),

		presence: fmt.Sprintf(`
	SELECT %s::text, coalesce(%s, false), coalesce(%s, 'epoch'::timestamptz), coalesce(%s::text, '[]')
	FROM %s
	ORDER BY %s`,
			ident(p.AgentID), ident(p.Online), ident(p.LastSeen), ident(p.Chats),
			ident(p.Table),
			ident(p.AgentID)),

		alerts: fmt.Sprintf(`
	SELECT
		%s::text, coalesce(%s::text, ''), coalesce(%s::text, ''), coalesce(%s::text, ''),
		coalesce(%s::text, ''), %s, coalesce(%s, false)
	FROM %s
	WHERE coalesce(%s, false) = false AND %s >= $1
	ORDER BY %s DESC`,
			ident(al.ID), ident(al.Severity), ident(al.Category), ident(al.Message),
			ident(al.Suggestion), ident(al.CreatedAt), ident(al.Resolved),
			ident(al.Table),
			ident(al.Resolved), ident(al.CreatedAt),
			ident(al.CreatedAt)),

		prediction: fmt.Sprintf(`
	SELECT %s::text, %s::text, coalesce(%s::text, '{}'), %s
	FROM %s
	WHERE %s::text = $1 AND %s::text = $2
	ORDER BY %s DESC
	LIMIT 1`,
			ident(pr.Type), ident(pr.ReferenceDate), ident(pr.Data), ident(pr.CreatedAt),
			ident(pr.Table),
			ident(pr.Type), ident(pr.ReferenceDate),
			ident(pr.CreatedAt)),

		ranking: fmt.Sprintf(`
	SELECT
		%s::text, %s::text, %s::text, coalesce(%s, 0)::int, coalesce(%s, 0)::int,
		coalesce(%s, 0)::float8, coalesce(%s, '{}')::text[]
	FROM %s
	WHERE %s::text = $1 AND %s::text = $2
	ORDER BY %s DESC`,
			ident(r.AgentID), ident(r.Period), ident(r.ReferenceDate), ident(r.Points), ident(r.TicketCount),
			ident(r.AvgHandlingMinutes), ident(r.Achievements),
			ident(r.Table),
			ident(r.Period), ident(r.ReferenceDate),
			ident(r.Points)),

		transfers: fmt.Sprintf(`
	SELECT
		%s::text, coalesce(%s::text, ''), coalesce(%s::text, ''), coalesce(%s::text, ''),
		coalesce(%s::text, ''), coalesce(%s::text, ''), %s
	FROM %s
	WHERE (%s = $1 OR %s = $1) AND %s >= $2 AND %s < $3
	ORDER BY %s`,
			ident(t.ID), ident(t.TicketID), ident(t.FromAgent), ident(t.ToAgent),
			ident(t.Reason), ident(t.Note), ident(t.CreatedAt),
			ident(t.Table),
			ident(t.FromAgent), ident(t.ToAgent), ident(t.CreatedAt), ident(t.CreatedAt),
			ident(t.CreatedAt)),
	}
}

func (s *PostgresStore) GetAttendance(ctx context.Context, from, to time.Time) ([]types.AttendanceRecord, error) {
	rows, err := s.pool.Query(ctx, s.queries.attendance, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	defer rows.Close()

	var list []types.AttendanceRecord
	for rows.Next() {
		var rec types.AttendanceRecord
		var origin string
		err := rows.Scan(
			&rec.ID,
			&rec.AgentID,
			&rec.CustomerName,
			&rec.Phone,
			&rec.Status,
			&rec.Motive,
			&rec.CreatedAt,
			&rec.UpdatedAt,
			&rec.Rating,
			&origin,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		rec.Origin = types.Origin(origin)
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attendance: %w", err)
	}
	return list, nil
}

func (s *PostgresStore) GetPresence(ctx context.Context) ([]types.AgentPresence, error) {
	rows, err := s.pool.Query(ctx, s.queries.presence)
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}
	defer rows.Close()

	var list []types.AgentPresence
	for rows.Next() {
		var p types.AgentPresence
		var chats string
		if err := rows.Scan(&p.AgentID, &p.Online, &p.LastSeen, &chats); err != nil {
			return nil, fmt.Errorf("failed to scan presence: %w", err)
		}
		if err := json.Unmarshal([]byte(chats), &p.Chats); err != nil {
			s.logger.Warn().Err(err).Str("agent_id", p.AgentID).Msg("ignoring malformed chats column")
			p.Chats = nil
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}
	return list, nil
}

func (s *PostgresStore) GetActiveAlerts(ctx context.Context, since time.Time) ([]types.SystemAlert, error) {
	rows, err := s.pool.Query(ctx, s.queries.alerts, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	defer rows.Close()

	var list []types.SystemAlert
	for rows.Next() {
		var a types.SystemAlert
		var severity string
		err := rows.Scan(
			&a.ID,
			&severity,
			&a.Category,
			&a.Message,
			&a.Suggestion,
			&a.Timestamp,
			&a.Resolved,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Severity = types.AlertSeverity(severity)
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", err)
	}
	return list, nil
}

func (s *PostgresStore) GetPrediction(ctx context.Context, kind types.PredictionType, date string) (*types.PredictionPayload, error) {
	var p types.PredictionPayload
	var typ, data string
	err := s.pool.QueryRow(ctx, s.queries.prediction, string(kind), date).
		Scan(&typ, &p.ReferenceDate, &data, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	p.Type = types.PredictionType(typ)
	p.Data = json.RawMessage(data)
	return &p, nil
}

func (s *PostgresStore) GetRanking(ctx context.Context, period types.RankingPeriod, date string) ([]types.RankingEntry, error) {
	rows, err := s.pool.Query(ctx, s.queries.ranking, string(period), date)
	if err != nil {
		return nil, fmt.Errorf("failed to get ranking: %w", err)
	}
	defer rows.Close()

	var list []types.RankingEntry
	for rows.Next() {
		var e types.RankingEntry
		var p string
		err := rows.Scan(
			&e.AgentID,
			&p,
			&e.ReferenceDate,
			&e.Points,
			&e.TicketCount,
			&e.AvgHandlingMinutes,
			&e.Achievements,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		e.Period = types.RankingPeriod(p)
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ranking: %w", err)
	}
	return list, nil
}

func (s *PostgresStore) GetTransfers(ctx context.Context, agentID string, from, to time.Time) ([]types.TransferLog, error) {
	rows, err := s.pool.Query(ctx, s.queries.transfers, agentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers: %w", err)
	}
	defer rows.Close()

	var list []types.TransferLog
	for rows.Next() {
		var t types.TransferLog
		err := rows.Scan(
			&t.ID,
			&t.TicketID,
			&t.FromAgent,
			&t.ToAgent,
			&t.Reason,
			&t.Note,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transfers: %w", err)
	}
	return list, nil
}

// Close releases the pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

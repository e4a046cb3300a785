package postgres

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumera/portal/internal/analytics"
	"github.com/lumera/portal/internal/domain/sessionstore"
)

// SessionStore persists visitor-session records.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore constructs a SessionStore backed by the provided pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

const (
	sessionInsertSQL = `
INSERT INTO visitor_sessions (
    id,
    ts,
    customer_id,
    ip_address,
    country,
    user_agent,
    referrer,
    consent,
    duration_seconds,
    pages_visited,
    created_at
)
VALUES (
    @id,
    @ts,
    @customer_id,
    @ip_address,
    @country,
    @user_agent,
    @referrer,
    @consent,
    @duration_seconds,
    @pages_visited::jsonb,
    NOW()
)
ON CONFLICT (id) DO NOTHING;
`

	sessionSelectBase = `
SELECT
    id::text,
    ts,
    COALESCE(customer_id, ''),
    ip_address,
    country,
    user_agent,
    COALESCE(referrer, ''),
    consent,
    duration_seconds,
    pages_visited
FROM visitor_sessions
`

	defaultSessionLimit = 500
	maxSessionLimit     = 5000
)

func (s *SessionStore) ensurePool() (*pgxpool.Pool, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("session store: nil pool")
	}
	return s.pool, nil
}

// Insert records a session, assigning an id when the record has none.
func (s *SessionStore) Insert(ctx context.Context, session analytics.VisitorSession) (analytics.VisitorSession, error) {
	pool, err := s.ensurePool()
	if err != nil {
		return analytics.VisitorSession{}, err
	}
	if strings.TrimSpace(session.ID) == "" {
		session.ID = uuid.NewString()
	}
	pages, err := json.Marshal(session.PagesVisited)
	if err != nil {
		return analytics.VisitorSession{}, fmt.Errorf("session store: encode pages: %w", err)
	}
	args := pgx.NamedArgs{
		"id":               session.ID,
		"ts":               session.Timestamp,
		"customer_id":      nullableString(session.CustomerID),
		"ip_address":       session.IPAddress,
		"country":          session.Country,
		"user_agent":       session.UserAgent,
		"referrer":         nullableString(session.Referrer),
		"consent":          session.Consent,
		"duration_seconds": session.SessionDurationSeconds,
		"pages_visited":    pages,
	}
	if _, err := pool.Exec(ctx, sessionInsertSQL, args); err != nil {
		return analytics.VisitorSession{}, fmt.Errorf("session store: insert session: %w", err)
	}
	return session, nil
}

// List returns sessions matching the query, newest first.
func (s *SessionStore) List(ctx context.Context, query sessionstore.Query) ([]analytics.VisitorSession, error) {
	pool, err := s.ensurePool()
	if err != nil {
		return nil, err
	}

	var clauses []string
	args := pgx.NamedArgs{}
	if !query.StartDate.IsZero() {
		clauses = append(clauses, "ts >= @start_date")
		args["start_date"] = query.StartDate
	}
	if query.HasCustomerID != nil {
		if *query.HasCustomerID {
			clauses = append(clauses, "customer_id IS NOT NULL")
		} else {
			clauses = append(clauses, "customer_id IS NULL")
		}
	}
	if query.Consent != nil {
		clauses = append(clauses, "consent = @consent")
		args["consent"] = *query.Consent
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultSessionLimit
	}
	if limit > maxSessionLimit {
		limit = maxSessionLimit
	}
	args["limit"] = limit

	sql := sessionSelectBase
	if len(clauses) > 0 {
		sql += "WHERE " + strings.Join(clauses, " AND ") + "\n"
	}
	sql += "ORDER BY ts DESC\nLIMIT @limit;"

	rows, err := pool.Query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("session store: list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []analytics.VisitorSession
	for rows.Next() {
		var (
			session analytics.VisitorSession
			pages   []byte
		)
		if err := rows.Scan(
			&session.ID,
			&session.Timestamp,
			&session.CustomerID,
			&session.IPAddress,
			&session.Country,
			&session.UserAgent,
			&session.Referrer,
			&session.Consent,
			&session.SessionDurationSeconds,
			&pages,
		); err != nil {
			return nil, fmt.Errorf("session store: scan session: %w", err)
		}
		if len(pages) > 0 {
			if err := json.Unmarshal(pages, &session.PagesVisited); err != nil {
				return nil, fmt.Errorf("session store: decode pages: %w", err)
			}
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session store: iterate sessions: %w", err)
	}
	return sessions, nil
}

func nullableString(value string) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

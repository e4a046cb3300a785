// Package sessionstore defines persistence contracts for the visitor-session log.
package sessionstore

import (
	"context"
	"time"

	"github.com/lumera/portal/internal/analytics"
)

// Query scopes session lookups. Zero values leave the dimension unfiltered.
type Query struct {
	StartDate     time.Time `json:"startDate,omitempty"`
	HasCustomerID *bool     `json:"hasCustomerId,omitempty"`
	Consent       *bool     `json:"consent,omitempty"`
	Limit         int       `json:"limit,omitempty"`
}

// Store defines the contract for visitor-session persistence.
type Store interface {
	// Insert records a session, assigning an id when the record has none.
	Insert(ctx context.Context, session analytics.VisitorSession) (analytics.VisitorSession, error)
	// List returns sessions matching the query, newest first.
	List(ctx context.Context, query Query) ([]analytics.VisitorSession, error)
}

// Matches reports whether the session passes the query's filters. Shared by
// the memory store and tests; the Postgres store filters in SQL.
func (q Query) Matches(s analytics.VisitorSession) bool {
	if !q.StartDate.IsZero() && s.Timestamp.Before(q.StartDate) {
		return false
	}
	if q.HasCustomerID != nil && (s.CustomerID != "") != *q.HasCustomerID {
		return false
	}
	if q.Consent != nil && s.Consent != *q.Consent {
		return false
	}
	return true
}

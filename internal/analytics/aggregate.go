// Package analytics reduces raw visitor-session records into the summary
// metrics shown on the admin dashboard.
//
// The reduction is pure and stateless: metrics are recomputed in full from
// the current session collection whenever the inputs or filters change. At
// the expected collection sizes this is cheaper to reason about than an
// incremental update path.
package analytics

import (
	"sort"
	"time"
)

// VisitorSession is one raw session log record.
type VisitorSession struct {
	ID                     string    `json:"id,omitempty"`
	Timestamp              time.Time `json:"timestamp"`
	CustomerID             string    `json:"customerId,omitempty"`
	IPAddress              string    `json:"ipAddress"`
	Country                string    `json:"country,omitempty"`
	UserAgent              string    `json:"userAgent"`
	Referrer               string    `json:"referrer,omitempty"`
	Consent                bool      `json:"consent"`
	SessionDurationSeconds int       `json:"sessionDurationSeconds"`
	PagesVisited           []string  `json:"pagesVisited,omitempty"`
}

// DateBucket counts sessions for one calendar date.
type DateBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// KnownVsUnknown splits sessions by customer attribution.
type KnownVsUnknown struct {
	Known   int `json:"known"`
	Unknown int `json:"unknown"`
}

// SummaryMetrics is the derived dashboard view. It is never persisted;
// callers recompute it from the current session collection.
type SummaryMetrics struct {
	TotalVisits        int            `json:"totalVisits"`
	UniqueCustomers    int            `json:"uniqueCustomers"`
	AvgDurationSeconds float64        `json:"avgDurationSeconds"`
	ConsentPercentage  float64        `json:"consentPercentage"`
	KnownVsUnknown     KnownVsUnknown `json:"knownVsUnknown"`
	SessionsByDate     []DateBucket   `json:"sessionsByDate"`
	Devices            map[Device]int `json:"devices"`
}

// Summarize reduces sessions into SummaryMetrics. An empty input yields zero
// values, never NaN.
func Summarize(sessions []VisitorSession) SummaryMetrics {
	metrics := SummaryMetrics{
		TotalVisits:    len(sessions),
		SessionsByDate: []DateBucket{},
		Devices:        make(map[Device]int),
	}
	if len(sessions) == 0 {
		return metrics
	}

	customers := make(map[string]struct{})
	byDate := make(map[string]int)
	totalDuration := 0
	consented := 0

	for _, s := range sessions {
		if s.CustomerID != "" {
			customers[s.CustomerID] = struct{}{}
			metrics.KnownVsUnknown.Known++
		} else {
			metrics.KnownVsUnknown.Unknown++
		}
		if s.Consent {
			consented++
		}
		totalDuration += s.SessionDurationSeconds
		byDate[s.Timestamp.Format("2006-01-02")]++
		metrics.Devices[ClassifyDevice(s.UserAgent)]++
	}

	metrics.UniqueCustomers = len(customers)
	metrics.AvgDurationSeconds = float64(totalDuration) / float64(len(sessions))
	metrics.ConsentPercentage = 100 * float64(consented) / float64(len(sessions))

	for date, count := range byDate {
		metrics.SessionsByDate = append(metrics.SessionsByDate, DateBucket{Date: date, Count: count})
	}
	// Ascending date order is a hard requirement for time-series rendering.
	sort.Slice(metrics.SessionsByDate, func(i, j int) bool {
		return metrics.SessionsByDate[i].Date < metrics.SessionsByDate[j].Date
	})

	return metrics
}

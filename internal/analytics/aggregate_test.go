package analytics

import (
	"math"
	"sort"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSummarizeEmptyInput(t *testing.T) {
	metrics := Summarize(nil)

	if metrics.TotalVisits != 0 || metrics.UniqueCustomers != 0 {
		t.Fatalf("expected zero counts, got %+v", metrics)
	}
	if metrics.AvgDurationSeconds != 0 || math.IsNaN(metrics.AvgDurationSeconds) {
		t.Fatalf("avg duration on empty input must be 0, got %v", metrics.AvgDurationSeconds)
	}
	if metrics.ConsentPercentage != 0 || math.IsNaN(metrics.ConsentPercentage) {
		t.Fatalf("consent percentage on empty input must be 0, got %v", metrics.ConsentPercentage)
	}
	if len(metrics.SessionsByDate) != 0 {
		t.Fatalf("expected no date buckets, got %v", metrics.SessionsByDate)
	}
}

func TestSummarizeCounts(t *testing.T) {
	sessions := []VisitorSession{
		{Timestamp: day("2026-08-01"), CustomerID: "c1", Consent: true, SessionDurationSeconds: 60},
		{Timestamp: day("2026-08-01"), CustomerID: "c1", Consent: false, SessionDurationSeconds: 30},
		{Timestamp: day("2026-08-02"), CustomerID: "c2", Consent: true, SessionDurationSeconds: 90},
		{Timestamp: day("2026-08-03"), Consent: false, SessionDurationSeconds: 20},
	}
	metrics := Summarize(sessions)

	if metrics.TotalVisits != 4 {
		t.Fatalf("totalVisits = %d", metrics.TotalVisits)
	}
	if metrics.UniqueCustomers != 2 {
		t.Fatalf("uniqueCustomers = %d", metrics.UniqueCustomers)
	}
	if metrics.KnownVsUnknown.Known != 3 || metrics.KnownVsUnknown.Unknown != 1 {
		t.Fatalf("knownVsUnknown = %+v", metrics.KnownVsUnknown)
	}
	if metrics.AvgDurationSeconds != 50 {
		t.Fatalf("avgDurationSeconds = %v", metrics.AvgDurationSeconds)
	}
	if metrics.ConsentPercentage != 50 {
		t.Fatalf("consentPercentage = %v", metrics.ConsentPercentage)
	}
}

func TestSessionsByDateSortedAscending(t *testing.T) {
	// Deliberately unordered input.
	sessions := []VisitorSession{
		{Timestamp: day("2026-08-15")},
		{Timestamp: day("2026-08-03")},
		{Timestamp: day("2026-08-15")},
		{Timestamp: day("2026-08-01")},
		{Timestamp: day("2026-08-09")},
	}
	metrics := Summarize(sessions)

	if !sort.SliceIsSorted(metrics.SessionsByDate, func(i, j int) bool {
		return metrics.SessionsByDate[i].Date < metrics.SessionsByDate[j].Date
	}) {
		t.Fatalf("buckets not sorted: %v", metrics.SessionsByDate)
	}
	if len(metrics.SessionsByDate) != 4 {
		t.Fatalf("expected 4 buckets, got %v", metrics.SessionsByDate)
	}
	if metrics.SessionsByDate[0].Date != "2026-08-01" {
		t.Fatalf("first bucket = %+v", metrics.SessionsByDate[0])
	}
	last := metrics.SessionsByDate[len(metrics.SessionsByDate)-1]
	if last.Date != "2026-08-15" || last.Count != 2 {
		t.Fatalf("last bucket = %+v", last)
	}
}

func TestSummarizeDeviceBreakdown(t *testing.T) {
	sessions := []VisitorSession{
		{Timestamp: day("2026-08-01"), UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148"},
		{Timestamp: day("2026-08-01"), UserAgent: "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)"},
		{Timestamp: day("2026-08-01"), UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"},
	}
	metrics := Summarize(sessions)

	if metrics.Devices[DeviceMobile] != 1 || metrics.Devices[DeviceTablet] != 1 || metrics.Devices[DeviceDesktop] != 1 {
		t.Fatalf("device breakdown = %v", metrics.Devices)
	}
}

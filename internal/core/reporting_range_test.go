package core

import (
	"testing"
	"time"
)

func TestDayRange(t *testing.T) {
	tests := []struct {
		name  string
		in    time.Time
		start string
		end   string
	}{
		{
			name:  "midday UTC",
			in:    time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC),
			start: "2024-03-15T00:00:00Z",
			end:   "2024-03-16T00:00:00Z",
		},
		{
			name:  "non-UTC input is converted first",
			in:    time.Date(2024, 3, 15, 23, 30, 0, 0, time.FixedZone("plus2", 2*60*60)),
			start: "2024-03-15T00:00:00Z",
			end:   "2024-03-16T00:00:00Z",
		},
		{
			name:  "month boundary",
			in:    time.Date(2024, 1, 31, 5, 0, 0, 0, time.UTC),
			start: "2024-01-31T00:00:00Z",
			end:   "2024-02-01T00:00:00Z",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, end := dayRange(tc.in)
			if got := start.Format(time.RFC3339); got != tc.start {
				t.Errorf("start = %s, want %s", got, tc.start)
			}
			if got := end.Format(time.RFC3339); got != tc.end {
				t.Errorf("end = %s, want %s", got, tc.end)
			}
		})
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name        string
		year, month int
		start       string
		end         string
	}{
		{name: "mid year", year: 2024, month: 6, start: "2024-06-01T00:00:00Z", end: "2024-07-01T00:00:00Z"},
		{name: "december rolls into january", year: 2024, month: 12, start: "2024-12-01T00:00:00Z", end: "2025-01-01T00:00:00Z"},
		{name: "february leap year", year: 2024, month: 2, start: "2024-02-01T00:00:00Z", end: "2024-03-01T00:00:00Z"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, end := monthRange(tc.year, tc.month)
			if got := start.Format(time.RFC3339); got != tc.start {
				t.Errorf("start = %s, want %s", got, tc.start)
			}
			if got := end.Format(time.RFC3339); got != tc.end {
				t.Errorf("end = %s, want %s", got, tc.end)
			}
		})
	}
}

package models

import "time"

// DashboardSummary carries the per-role counters shown on landing pages.
type DashboardSummary struct {
	Role             UserRole       `json:"role"`
	PendingReviews   int            `json:"pending_reviews"`
	RequestsByStatus map[string]int `json:"requests_by_status"`
	TotalRequests    int            `json:"total_requests"`
	TotalInterns     int            `json:"total_interns,omitempty"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

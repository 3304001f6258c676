package dto

import "github.com/edulog/workload-api/internal/models"

// DashboardSummary aggregates an instructor's activity for a resolved period.
type DashboardSummary struct {
	Period       string                      `json:"period"`
	StartDate    string                      `json:"start_date"`
	EndDate      string                      `json:"end_date"`
	TotalLogged  int                         `json:"total_logged"`
	CountsByType map[models.ActivityType]int `json:"counts_by_type"`
	RecentFeed   []FeedEntry                 `json:"recent_feed"`
}

// FeedEntry is one formatter-rendered line of the recent activity feed.
type FeedEntry struct {
	ID        string `json:"id"`
	TypeLabel string `json:"type_label"`
	Summary   string `json:"summary"`
	LoggedAt  string `json:"logged_at"`
}

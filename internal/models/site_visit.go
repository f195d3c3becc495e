package models

import "time"

// SiteVisit is a lightweight access log row written for public page views.
// Rows are purged by the background cleanup task after the retention window.
type SiteVisit struct {
	ID        string    `db:"id"`
	IPAddress string    `db:"ip_address"`
	UserAgent string    `db:"user_agent"`
	Referer   string    `db:"referer"`
	PagePath  string    `db:"page_path"`
	VisitTime time.Time `db:"visit_time"`
}

package model

import "time"

// SearchFilter narrows archive queries on the read side.
type SearchFilter struct {
	Manufacturer string
	Customer     string
	Category     string
	StartDate    *time.Time
	EndDate      *time.Time
}

// CategoryCount is one bucket of the category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// ArchiveStats summarizes the archive for the dashboard endpoint.
type ArchiveStats struct {
	TotalCompleted    int64           `json:"total_completed"`
	Last7Days         int64           `json:"last_7_days"`
	Last30Days        int64           `json:"last_30_days"`
	OldestRecord      *time.Time      `json:"oldest_record,omitempty"`
	NewestRecord      *time.Time      `json:"newest_record,omitempty"`
	AvgDeliveryDays   float64         `json:"average_delivery_days"`
	CategoryBreakdown []CategoryCount `json:"category_breakdown"`
}

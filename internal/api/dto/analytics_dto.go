package dto

import "time"

// CountBucketResponse is a grouped count.
type CountBucketResponse struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// DailyVolumeResponse counts tickets created on a day.
type DailyVolumeResponse struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// AgentWorkloadResponse counts an agent's tickets.
type AgentWorkloadResponse struct {
	AgentID  string `json:"agent_id"`
	Name     string `json:"name"`
	Assigned int64  `json:"assigned"`
	Resolved int64  `json:"resolved"`
}

// SLASummaryResponse aggregates deadline outcomes.
type SLASummaryResponse struct {
	Tracked                 int64   `json:"tracked"`
	FirstResponseBreached   int64   `json:"first_response_breached"`
	ResolutionBreached      int64   `json:"resolution_breached"`
	AvgFirstResponseSeconds float64 `json:"avg_first_response_seconds"`
	AvgResolutionSeconds    float64 `json:"avg_resolution_seconds"`
}

// AnalyticsOverviewResponse is the dashboard payload.
type AnalyticsOverviewResponse struct {
	From       time.Time               `json:"from"`
	To         time.Time               `json:"to"`
	Total      int64                   `json:"total"`
	ByStatus   []CountBucketResponse   `json:"by_status"`
	ByPriority []CountBucketResponse   `json:"by_priority"`
	ByCategory []CountBucketResponse   `json:"by_category"`
	Daily      []DailyVolumeResponse   `json:"daily"`
	Agents     []AgentWorkloadResponse `json:"agents"`
	SLA        SLASummaryResponse      `json:"sla"`
}

package domain

import "time"

// CountBucket is a grouped ticket count.
type CountBucket struct {
	Key   string
	Count int64
}

// DailyVolume counts tickets created on a day.
type DailyVolume struct {
	Day   time.Time
	Count int64
}

// AgentWorkload counts open tickets assigned to an agent.
type AgentWorkload struct {
	AgentID  string
	Name     string
	Assigned int64
	Resolved int64
}

// SLASummary aggregates deadline outcomes.
type SLASummary struct {
	Tracked                 int64
	FirstResponseBreached   int64
	ResolutionBreached      int64
	AvgFirstResponseSeconds float64
	AvgResolutionSeconds    float64
}

// AnalyticsOverview is recomputed on every request.
type AnalyticsOverview struct {
	From       time.Time
	To         time.Time
	Total      int64
	ByStatus   []CountBucket
	ByPriority []CountBucket
	ByCategory []CountBucket
	Daily      []DailyVolume
	Agents     []AgentWorkload
	SLA        SLASummary
}

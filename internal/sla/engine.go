// Package sla derives first-response and resolution deadlines from a ticket's
// creation time and priority, and classifies them against the current time.
package sla

import (
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/config"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// Policy is the pair of offsets applied to a ticket's creation time.
type Policy struct {
	FirstResponse time.Duration
	Resolution    time.Duration
}

// Engine computes SLA deadlines and states. It holds no mutable state.
type Engine struct {
	policies     map[string]Policy
	fallback     Policy
	warningRatio float64
}

// NewEngine builds an engine from the configured priority offsets. Unknown
// priorities fall back to the default priority's policy.
func NewEngine(cfg config.HelpdeskConfig) *Engine {
	e := &Engine{
		policies:     make(map[string]Policy, len(cfg.Priorities)),
		warningRatio: cfg.SLAWarningRatio,
	}
	for _, p := range cfg.Priorities {
		e.policies[p.Name] = Policy{
			FirstResponse: time.Duration(p.FirstResponseSeconds) * time.Second,
			Resolution:    time.Duration(p.ResolutionSeconds) * time.Second,
		}
	}
	if p, ok := e.policies[cfg.DefaultPriority]; ok {
		e.fallback = p
	}
	return e
}

// Policy returns the offsets for priority.
func (e *Engine) Policy(priority string) Policy {
	if p, ok := e.policies[priority]; ok {
		return p
	}
	return e.fallback
}

// WarningRatio returns the fraction of the window that triggers a warning.
func (e *Engine) WarningRatio() float64 {
	return e.warningRatio
}

// Deadlines returns a fresh SLA record for a ticket created at createdAt.
func (e *Engine) Deadlines(ticketID string, createdAt time.Time, priority string) domain.SLARecord {
	policy := e.Policy(priority)
	return domain.SLARecord{
		TicketID:         ticketID,
		StartedAt:        createdAt,
		FirstResponseDue: createdAt.Add(policy.FirstResponse),
		ResolutionDue:    createdAt.Add(policy.Resolution),
	}
}

// Reschedule recomputes the due dates of record for a new priority, keeping
// the original start and any recorded response or resolution.
func (e *Engine) Reschedule(record domain.SLARecord, priority string) domain.SLARecord {
	policy := e.Policy(priority)
	record.FirstResponseDue = record.StartedAt.Add(policy.FirstResponse)
	record.ResolutionDue = record.StartedAt.Add(policy.Resolution)
	return record
}

// Evaluate classifies both deadlines of record at now.
func (e *Engine) Evaluate(record domain.SLARecord, now time.Time) domain.SLAStatus {
	return domain.SLAStatus{
		TicketID:         record.TicketID,
		FirstResponse:    Classify(now, record.StartedAt, record.FirstResponseDue, record.FirstResponseAt, e.warningRatio),
		Resolution:       Classify(now, record.StartedAt, record.ResolutionDue, record.ResolvedAt, e.warningRatio),
		FirstResponseDue: record.FirstResponseDue,
		ResolutionDue:    record.ResolutionDue,
		FirstResponseAt:  record.FirstResponseAt,
		ResolvedAt:       record.ResolvedAt,
		EvaluatedAt:      now,
	}
}

// Classify returns the state of a deadline due at due for a window opened at
// start. A completed deadline is met when done on or before due. An open one
// is breached once now passes due and in warning while the remaining time is
// below ratio of the whole window.
func Classify(now, start, due time.Time, doneAt *time.Time, ratio float64) domain.SLAState {
	if doneAt != nil {
		if doneAt.After(due) {
			return domain.SLAStateBreached
		}
		return domain.SLAStateMet
	}
	if now.After(due) {
		return domain.SLAStateBreached
	}
	remaining := due.Sub(now)
	window := due.Sub(start)
	if float64(remaining) < ratio*float64(window) {
		return domain.SLAStateWarning
	}
	return domain.SLAStateOK
}

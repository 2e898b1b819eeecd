package domain

import "time"

// SLAState classifies a deadline at a point in time.
type SLAState string

const (
	SLAStateOK       SLAState = "ok"
	SLAStateWarning  SLAState = "warning"
	SLAStateBreached SLAState = "breached"
	SLAStateMet      SLAState = "met"
)

// Valid reports whether s is a known state.
func (s SLAState) Valid() bool {
	switch s {
	case SLAStateOK, SLAStateWarning, SLAStateBreached, SLAStateMet:
		return true
	}
	return false
}

// SLARecord holds the deadlines of a single ticket. StartedAt is the ticket
// creation time both windows are measured from. ResolvedAt and
// FirstResponseAt are set once and never cleared.
type SLARecord struct {
	TicketID         string
	StartedAt        time.Time
	FirstResponseDue time.Time
	FirstResponseAt  *time.Time
	ResolutionDue    time.Time
	ResolvedAt       *time.Time
	UpdatedAt        time.Time
}

// SLAStatus is the derived view of an SLA record at evaluation time.
type SLAStatus struct {
	TicketID         string
	FirstResponse    SLAState
	Resolution       SLAState
	FirstResponseDue time.Time
	ResolutionDue    time.Time
	FirstResponseAt  *time.Time
	ResolvedAt       *time.Time
	EvaluatedAt      time.Time
}

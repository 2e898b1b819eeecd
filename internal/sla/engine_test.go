package sla

import (
	"testing"
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/config"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

var created = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestCriticalTicketBreachesFirstResponseAfterOneHour(t *testing.T) {
	engine := NewEngine(config.DefaultHelpdesk())

	record := engine.Deadlines("t-1", created, "critical")
	if want := created.Add(3600 * time.Second); !record.FirstResponseDue.Equal(want) {
		t.Fatalf("expected first response due %v, got %v", want, record.FirstResponseDue)
	}
	if want := created.Add(14400 * time.Second); !record.ResolutionDue.Equal(want) {
		t.Fatalf("expected resolution due %v, got %v", want, record.ResolutionDue)
	}

	status := engine.Evaluate(record, created.Add(3601*time.Second))
	if status.FirstResponse != domain.SLAStateBreached {
		t.Fatalf("expected breached first response, got %s", status.FirstResponse)
	}
	if status.Resolution != domain.SLAStateOK {
		t.Fatalf("expected resolution ok, got %s", status.Resolution)
	}
}

func TestClassify(t *testing.T) {
	due := created.Add(100 * time.Minute)
	done := created.Add(50 * time.Minute)
	late := created.Add(101 * time.Minute)

	cases := []struct {
		name   string
		now    time.Time
		doneAt *time.Time
		want   domain.SLAState
	}{
		{name: "fresh", now: created, want: domain.SLAStateOK},
		{name: "just before warning", now: created.Add(75 * time.Minute), want: domain.SLAStateOK},
		{name: "inside warning", now: created.Add(76 * time.Minute), want: domain.SLAStateWarning},
		{name: "exactly due", now: due, want: domain.SLAStateWarning},
		{name: "past due", now: due.Add(time.Second), want: domain.SLAStateBreached},
		{name: "met before due", now: due.Add(time.Hour), doneAt: &done, want: domain.SLAStateMet},
		{name: "met on due", now: due.Add(time.Hour), doneAt: &due, want: domain.SLAStateMet},
		{name: "completed late", now: due.Add(time.Hour), doneAt: &late, want: domain.SLAStateBreached},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.now, created, due, tc.doneAt, 0.25)
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestUnknownPriorityUsesDefaultPolicy(t *testing.T) {
	engine := NewEngine(config.DefaultHelpdesk())
	medium := engine.Policy("medium")
	if got := engine.Policy("does-not-exist"); got != medium {
		t.Fatalf("expected fallback %+v, got %+v", medium, got)
	}
}

func TestRescheduleKeepsStartAndCompletion(t *testing.T) {
	engine := NewEngine(config.DefaultHelpdesk())
	responded := created.Add(10 * time.Minute)

	record := engine.Deadlines("t-2", created, "low")
	record.FirstResponseAt = &responded

	rescheduled := engine.Reschedule(record, "critical")
	if !rescheduled.StartedAt.Equal(created) {
		t.Fatalf("start moved: %v", rescheduled.StartedAt)
	}
	if !rescheduled.FirstResponseDue.Equal(created.Add(time.Hour)) {
		t.Fatalf("unexpected first response due %v", rescheduled.FirstResponseDue)
	}
	if rescheduled.FirstResponseAt == nil || !rescheduled.FirstResponseAt.Equal(responded) {
		t.Fatalf("first response timestamp lost")
	}
}

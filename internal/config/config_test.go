package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr %q", cfg.App.Addr())
	}
	if cfg.Helpdesk.InitialStatus() != "open" {
		t.Fatalf("expected initial status open, got %q", cfg.Helpdesk.InitialStatus())
	}
	critical, ok := cfg.Helpdesk.Priority("critical")
	if !ok {
		t.Fatalf("expected critical priority policy")
	}
	if critical.FirstResponseSeconds != 3600 {
		t.Fatalf("expected critical first response 3600s, got %d", critical.FirstResponseSeconds)
	}
	if cfg.Helpdesk.SLAWarningRatio != 0.25 {
		t.Fatalf("expected warning ratio 0.25, got %v", cfg.Helpdesk.SLAWarningRatio)
	}
	if cfg.Broker.Enabled() {
		t.Fatalf("broker should be disabled without BROKER_URL")
	}
}

func TestLoadHelpdeskOverrides(t *testing.T) {
	t.Setenv("HELPDESK_STATUSES", "new, Triage ,done")
	t.Setenv("HELPDESK_RESOLVED_STATUSES", "done")
	t.Setenv("HELPDESK_SLA_POLICY", "p1:60:600,p2:120:1200")
	t.Setenv("HELPDESK_DEFAULT_PRIORITY", "p2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Helpdesk.HasStatus("triage") {
		t.Fatalf("expected lower-cased triage status, got %v", cfg.Helpdesk.Statuses)
	}
	if cfg.Helpdesk.InitialStatus() != "new" {
		t.Fatalf("expected initial status new, got %q", cfg.Helpdesk.InitialStatus())
	}
	if !cfg.Helpdesk.IsResolved("done") || cfg.Helpdesk.IsResolved("new") {
		t.Fatalf("unexpected resolved set %v", cfg.Helpdesk.ResolvedStatuses)
	}
	p1, ok := cfg.Helpdesk.Priority("p1")
	if !ok || p1.ResolutionSeconds != 600 {
		t.Fatalf("unexpected p1 policy %+v", p1)
	}
}

func TestLoadRejectsUnknownDefaultPriority(t *testing.T) {
	t.Setenv("HELPDESK_DEFAULT_PRIORITY", "whenever")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for default priority without policy")
	}
}

func TestParsePriorities(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
		wantLen int
	}{
		{name: "valid", raw: "critical:3600:14400, low:86400:432000", wantLen: 2},
		{name: "trailing comma", raw: "critical:3600:14400,", wantLen: 1},
		{name: "missing part", raw: "critical:3600", wantErr: true},
		{name: "non numeric", raw: "critical:soon:later", wantErr: true},
		{name: "zero offset", raw: "critical:0:10", wantErr: true},
		{name: "empty", raw: " , ", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePriorities(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tc.raw, err)
			}
			if len(got) != tc.wantLen {
				t.Fatalf("expected %d priorities, got %d", tc.wantLen, len(got))
			}
		})
	}
}

func TestInvalidWarningRatio(t *testing.T) {
	t.Setenv("HELPDESK_SLA_WARNING_RATIO", "1.5")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for ratio above 1")
	}
}

package alerts

import (
	"testing"
	"time"

	"github.com/rh-john/ocp-eip-monitoring/internal/aggregate"
	"github.com/rh-john/ocp-eip-monitoring/internal/config"
)

func bundleWith(mutate func(*aggregate.Bundle)) *aggregate.Bundle {
	b := aggregate.EmptyBundle()
	if mutate != nil {
		mutate(b)
	}
	return b
}

func rule(name, condition string) config.AlertRule {
	return config.AlertRule{Name: name, Condition: condition, Severity: "warning", Cooldown: time.Minute}
}

func TestEvaluate_FiresOnCondition(t *testing.T) {
	e := New(config.AlertsConfig{Rules: []config.AlertRule{
		rule("health-degraded", "health_score < 50"),
	}})

	e.Evaluate(bundleWith(func(b *aggregate.Bundle) { b.HealthScore = 30 }))

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("active alerts: got %d, want 1", len(active))
	}
	a := active[0]
	if a.RuleName != "health-degraded" || a.State != "firing" {
		t.Errorf("alert: got %+v", a)
	}
	if a.Value != 30 {
		t.Errorf("Value: got %v, want 30", a.Value)
	}
}

func TestEvaluate_NoFireWhenHealthy(t *testing.T) {
	e := New(config.AlertsConfig{Rules: []config.AlertRule{
		rule("health-degraded", "health_score < 50"),
	}})

	e.Evaluate(bundleWith(func(b *aggregate.Bundle) { b.HealthScore = 90 }))

	if got := len(e.Active()); got != 0 {
		t.Errorf("active alerts: got %d, want 0", got)
	}
}

func TestEvaluate_CooldownSuppressesRefires(t *testing.T) {
	e := New(config.AlertsConfig{Rules: []config.AlertRule{
		rule("mismatch", "mismatch_total > 0"),
	}})
	unhealthy := bundleWith(func(b *aggregate.Bundle) { b.MismatchTotal = 2 })

	e.Evaluate(unhealthy)
	first := e.Active()
	if len(first) != 1 {
		t.Fatalf("active after first fire: got %d, want 1", len(first))
	}

	// Second evaluation inside the cooldown must not produce a new alert.
	e.Evaluate(unhealthy)
	second := e.Active()
	if len(second) != 1 {
		t.Fatalf("active after refire attempt: got %d, want still 1", len(second))
	}
	if first[0].ID != second[0].ID {
		t.Error("cooldown violated: a new alert instance was created")
	}
}

func TestEvaluate_ResolvesWhenConditionClears(t *testing.T) {
	e := New(config.AlertsConfig{Rules: []config.AlertRule{
		rule("critical", "critical_total > 0"),
	}})

	e.Evaluate(bundleWith(func(b *aggregate.Bundle) { b.Critical = 1 }))
	e.Evaluate(bundleWith(nil)) // condition cleared

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("Active: got %d entries, want 1 recently-resolved", len(active))
	}
	a := active[0]
	if a.State != "resolved" {
		t.Errorf("State: got %q, want resolved", a.State)
	}
	if a.ResolvedAt == nil {
		t.Error("ResolvedAt: got nil")
	}
}

func TestEvaluate_NoRulesIsNoop(t *testing.T) {
	e := New(config.AlertsConfig{})
	e.Evaluate(bundleWith(nil))

	if got := len(e.Active()); got != 0 {
		t.Errorf("active alerts: got %d, want 0", got)
	}
}

func TestEvalCondition(t *testing.T) {
	b := bundleWith(func(b *aggregate.Bundle) {
		b.HealthScore = 45
		b.Gini = 0.6
		b.Unassigned = 3
		b.NodesWithErrors = 2
	})

	tests := []struct {
		cond      string
		wantFires bool
		wantValue float64
	}{
		{"health_score < 50", true, 45},
		{"health_score >= 45", true, 45},
		{"health_score > 50", false, 45},
		{"gini > 0.5", true, 0.6},
		{"unassigned_total > 10", false, 3},
		{"nodes_with_errors > 0", true, 2},
		{"stability_score < 60", false, 100},
	}
	for _, tc := range tests {
		fires, value := evalCondition(tc.cond, b)
		if fires != tc.wantFires || value != tc.wantValue {
			t.Errorf("evalCondition(%q): got (%v, %v), want (%v, %v)",
				tc.cond, fires, value, tc.wantFires, tc.wantValue)
		}
	}
}

func TestEvalCondition_Malformed(t *testing.T) {
	b := bundleWith(nil)

	for _, cond := range []string{
		"",
		"health_score",
		"health_score <",
		"health_score < fifty",
		"unknown_field > 0",
		"health_score <> 50",
	} {
		if fires, _ := evalCondition(cond, b); fires {
			t.Errorf("evalCondition(%q): fired on malformed input", cond)
		}
	}
}

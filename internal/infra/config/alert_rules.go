package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"team_pulse_worker/internal/domain/client"
)

// AlertRules are the client-at-risk thresholds.
type AlertRules struct {
	CriticalStatuses  []client.HealthStatus
	StaleAfterDays    int
	EscalateAfterDays int
	DedupWindow       time.Duration
}

func DefaultAlertRules() AlertRules {
	return AlertRules{
		CriticalStatuses:  client.DefaultCriticalStatuses(),
		StaleAfterDays:    21,
		EscalateAfterDays: 30,
		DedupWindow:       24 * time.Hour,
	}
}

// alertRulesFile mirrors the YAML document; absent keys keep the defaults.
type alertRulesFile struct {
	CriticalStatuses  []string `yaml:"critical_statuses"`
	StaleAfterDays    *int     `yaml:"stale_after_days"`
	EscalateAfterDays *int     `yaml:"escalate_after_days"`
	DedupWindow       string   `yaml:"dedup_window"`
}

// LoadAlertRules reads a YAML rules file over the defaults.
func LoadAlertRules(path string) (AlertRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AlertRules{}, fmt.Errorf("failed to read alert rules file: %w", err)
	}
	return ParseAlertRules(data)
}

func ParseAlertRules(data []byte) (AlertRules, error) {
	var raw alertRulesFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return AlertRules{}, fmt.Errorf("failed to parse alert rules: %w", err)
	}

	rules := DefaultAlertRules()
	if len(raw.CriticalStatuses) > 0 {
		rules.CriticalStatuses = make([]client.HealthStatus, 0, len(raw.CriticalStatuses))
		for _, name := range raw.CriticalStatuses {
			s := client.ParseHealthStatus(name)
			if s == client.HealthUnknown {
				return AlertRules{}, fmt.Errorf("alert rules: unknown health status %q", name)
			}
			rules.CriticalStatuses = append(rules.CriticalStatuses, s)
		}
	}
	if raw.StaleAfterDays != nil {
		rules.StaleAfterDays = *raw.StaleAfterDays
	}
	if raw.EscalateAfterDays != nil {
		rules.EscalateAfterDays = *raw.EscalateAfterDays
	}
	if raw.DedupWindow != "" {
		window, err := time.ParseDuration(raw.DedupWindow)
		if err != nil {
			return AlertRules{}, fmt.Errorf("alert rules: invalid dedup_window: %w", err)
		}
		rules.DedupWindow = window
	}

	if err := rules.Validate(); err != nil {
		return AlertRules{}, err
	}
	return rules, nil
}

func (r AlertRules) Validate() error {
	if r.StaleAfterDays <= 0 {
		return fmt.Errorf("alert rules: stale_after_days must be positive, got %d", r.StaleAfterDays)
	}
	if r.EscalateAfterDays < r.StaleAfterDays {
		return fmt.Errorf("alert rules: escalate_after_days (%d) is below stale_after_days (%d)", r.EscalateAfterDays, r.StaleAfterDays)
	}
	if r.DedupWindow <= 0 {
		return fmt.Errorf("alert rules: dedup_window must be positive")
	}
	return nil
}

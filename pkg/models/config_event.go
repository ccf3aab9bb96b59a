package models

import "time"

// ConfigUpdateEvent notifies running services that threshold rules changed
// and should be reloaded.
type ConfigUpdateEvent struct {
	EventType   string         `json:"event_type"`
	ServiceType string         `json:"service_type"`
	RuleID      string         `json:"rule_id,omitempty"`
	Environment string         `json:"environment,omitempty"`
	Action      string         `json:"action"`
	Timestamp   time.Time      `json:"timestamp"`
	ChangedBy   string         `json:"changed_by,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

const (
	EventTypeThresholdRuleUpdated = "threshold_rule_updated"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionToggle = "toggle"
	ActionReload = "reload"
)

const (
	ServiceTypeClassification = "classification"
)

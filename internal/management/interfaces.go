package management

import (
	"context"

	"riskgrade/internal/history"
	"riskgrade/pkg/models"
)

type Service interface {
	CreateThresholdRule(ctx context.Context, req CreateThresholdRuleRequest, changedBy string) (*ThresholdRule, error)
	ListThresholdRules(ctx context.Context, environment string, limit, offset int) ([]ThresholdRule, int, error)
	GetThresholdRule(ctx context.Context, id string) (*ThresholdRule, error)
	UpdateThresholdRule(ctx context.Context, id string, req UpdateThresholdRuleRequest, changedBy string) (*ThresholdRule, error)
	DeleteThresholdRule(ctx context.Context, id string, changedBy string) error

	GetRuleVersions(ctx context.Context, ruleID string, limit int) ([]RuleVersion, error)
	GetAuditLogs(ctx context.Context, ruleID string, limit, offset int) ([]AuditLog, int, error)

	PreviewClassification(ctx context.Context, req ClassifyPreviewRequest) (*ClassifyPreviewResponse, error)

	GetLatestStatus(ctx context.Context, environment string) (*models.RecordEnvelope, error)
	ListEnvironmentStatuses(ctx context.Context) ([]string, error)
	ListHistory(ctx context.Context, environment string, limit int) ([]history.Entry, error)
}

type Repository interface {
	Create(ctx context.Context, rule *ThresholdRule) error
	List(ctx context.Context, environment string, limit, offset int) ([]ThresholdRule, int, error)
	GetByID(ctx context.Context, id string) (*ThresholdRule, error)
	Update(ctx context.Context, rule *ThresholdRule) error
	Delete(ctx context.Context, id string) error
	ListEnabled(ctx context.Context, environment string) ([]ThresholdRule, error)
}

type VersioningRepository interface {
	SaveVersion(ctx context.Context, version *RuleVersion) error
	ListVersions(ctx context.Context, ruleID string, limit int) ([]RuleVersion, error)
	SaveAuditLog(ctx context.Context, log *AuditLog) error
	ListAuditLogs(ctx context.Context, ruleID string, limit, offset int) ([]AuditLog, int, error)
}

// Notifier publishes configuration change events so the classification
// service can reload its rule set.
type Notifier interface {
	NotifyRuleChange(ctx context.Context, action, ruleID, environment, changedBy string) error
}

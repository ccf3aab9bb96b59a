package management

import (
	"context"
	"time"

	"github.com/google/uuid"

	"riskgrade/internal/broker"
	"riskgrade/internal/logger"
	"riskgrade/pkg/models"
)

// ConfigEventProducer publishes rule-change events on the config update
// topic. The classification service reacts by reloading its rule set.
type ConfigEventProducer struct {
	producer broker.Producer
	topic    string
	logger   logger.Logger
}

func NewConfigEventProducer(producer broker.Producer, topic string, log logger.Logger) *ConfigEventProducer {
	return &ConfigEventProducer{
		producer: producer,
		topic:    topic,
		logger:   log,
	}
}

func (n *ConfigEventProducer) NotifyRuleChange(ctx context.Context, action, ruleID, environment, changedBy string) error {
	envelope := models.RecordEnvelope{
		ID:          uuid.NewString(),
		Environment: environment,
		Source:      "management-service",
		Timestamp:   time.Now().UTC(),
	}
	envelope.SetExtra("event_type", models.EventTypeThresholdRuleUpdated)
	envelope.SetExtra("service_type", models.ServiceTypeClassification)
	envelope.SetExtra("rule_id", ruleID)
	envelope.SetExtra("environment", environment)
	envelope.SetExtra("action", action)
	envelope.SetExtra("timestamp", envelope.Timestamp.Format(time.RFC3339))
	envelope.SetExtra("changed_by", changedBy)

	if err := n.producer.Publish(ctx, n.topic, envelope); err != nil {
		n.logger.ErrorwCtx(ctx, "failed to publish rule change event",
			"error", err, "rule_id", ruleID, "action", action)
		return err
	}
	n.logger.InfowCtx(ctx, "published rule change event",
		"rule_id", ruleID, "action", action, "environment", environment)
	return nil
}

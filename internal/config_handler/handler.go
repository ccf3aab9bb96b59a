package config_handler

import (
	"context"
	"encoding/json"

	"riskgrade/internal/logger"
	"riskgrade/pkg/models"
)

type ConfigReloader interface {
	ReloadRules(ctx context.Context) error
}

// Handler reacts to rule update events published on the config update
// topic. Events ride in the record envelope's Metadata.Extra.
type Handler struct {
	expectedEventType   string
	expectedServiceType string
	reloader            ConfigReloader
	logger              logger.Logger
}

func NewHandler(expectedEventType, expectedServiceType string, log logger.Logger) *Handler {
	return &Handler{
		expectedEventType:   expectedEventType,
		expectedServiceType: expectedServiceType,
		logger:              log,
	}
}

func NewHandlerWithReloader(expectedEventType, expectedServiceType string, reloader ConfigReloader, log logger.Logger) *Handler {
	return NewHandler(expectedEventType, expectedServiceType, log).WithReloader(reloader)
}

func (h *Handler) WithReloader(reloader ConfigReloader) *Handler {
	h.reloader = reloader
	return h
}

func (h *Handler) HandleConfigUpdateEvent(ctx context.Context, envelope models.RecordEnvelope) error {
	eventType, ok := envelope.Metadata.Extra["event_type"].(string)
	if !ok {
		h.logger.Warnw("Config event missing event_type", "id", envelope.ID)
		return nil
	}

	if eventType != h.expectedEventType {
		return nil
	}

	serviceType, ok := envelope.Metadata.Extra["service_type"].(string)
	if !ok {
		h.logger.Warnw("Config event missing service_type", "id", envelope.ID)
		return nil
	}

	if serviceType != h.expectedServiceType {
		return nil
	}

	var event models.ConfigUpdateEvent
	eventJSON, err := json.Marshal(envelope.Metadata.Extra)
	if err != nil {
		h.logger.Errorw("Failed to marshal event payload", "error", err, "id", envelope.ID)
		return err
	}

	if err := json.Unmarshal(eventJSON, &event); err != nil {
		h.logger.Errorw("Failed to unmarshal config event", "error", err, "id", envelope.ID)
		return err
	}

	h.logger.Infow("Received config update event",
		"event_type", event.EventType,
		"action", event.Action,
		"rule_id", event.RuleID,
	)

	if h.reloader != nil {
		if err := h.reloader.ReloadRules(ctx); err != nil {
			h.logger.Errorw("Failed to reload rules after config update", "error", err)
			return err
		}
		h.logger.Infow("Rules reloaded successfully after config update", "action", event.Action)
	}

	return nil
}

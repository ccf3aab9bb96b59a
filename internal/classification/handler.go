package classification

import (
	"context"

	"riskgrade/internal/config_handler"
	"riskgrade/internal/logger"
	"riskgrade/pkg/models"
)

type Handler = config_handler.Handler

type reloaderFunc func(ctx context.Context) error

func (f reloaderFunc) ReloadRules(ctx context.Context) error {
	return f(ctx)
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	// Event-driven reloads skip the jitter delay.
	reload := reloaderFunc(func(ctx context.Context) error {
		return service.ReloadRules(ctx, true)
	})
	return config_handler.NewHandlerWithReloader(
		models.EventTypeThresholdRuleUpdated,
		models.ServiceTypeClassification,
		reload,
		log,
	)
}

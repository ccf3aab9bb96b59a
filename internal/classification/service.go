package classification

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"riskgrade/internal/config"
	"riskgrade/internal/constants"
	"riskgrade/internal/logger"
	"riskgrade/pkg/errors"
	"riskgrade/pkg/metrics"
	"riskgrade/pkg/models"
	"riskgrade/pkg/threshold"
	"riskgrade/pkg/tracing"
)

// Service classifies record fields against the active threshold rule
// set. The rule set is replaced wholesale on reload; evaluation always
// reads one immutable snapshot.
type Service struct {
	repo       Repository
	ruleSet    *threshold.RuleSet
	lastLoaded time.Time
	ruleSetMu  sync.RWMutex
	cfg        config.ClassificationConfig
	logger     logger.Logger
}

func NewService(repo Repository, cfg config.ClassificationConfig, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		cfg:    cfg,
		logger: log,
	}
}

// Annotate classifies every field of the record that has a rule and
// attaches the results to the record in place.
func (s *Service) Annotate(ctx context.Context, record *models.RecordEnvelope) error {
	ctx, span := tracing.GetTracer("classification-service").Start(ctx, "classification.annotate")
	defer span.End()

	start := time.Now()
	rs := s.ActiveRuleSet()

	if rs == nil || len(rs.Environments) == 0 {
		return s.handleMissingRules(ctx, record, start)
	}

	annotated := 0
	var warnings []string
	for _, field := range record.Fields {
		if !rs.HasRule(record.Environment, field.Name) {
			continue
		}

		result := threshold.ClassifyDetailed(record.Environment, field.Name, field.Raw, rs)
		record.Annotate(field.Name, result.Level)
		annotated++

		metrics.IncClassificationField(record.Environment, string(result.Level))
		for _, w := range result.Warnings {
			warnings = append(warnings, field.Name+": "+w)
			metrics.IncRuleWarning(record.Environment, "rule_evaluation")
		}
	}

	if record.Metadata.Classification != nil {
		record.Metadata.Classification.EvaluatedAt = time.Now()
		record.Metadata.Classification.Warnings = warnings
	}

	for _, w := range warnings {
		s.logger.WarnwCtx(ctx, "Rule evaluation warning",
			"environment", record.Environment,
			"warning", w,
		)
	}

	status := "classified"
	if annotated == 0 {
		status = "unmatched"
	}
	metrics.ClassificationRecordsTotal.WithLabelValues(status).Inc()
	metrics.ObserveClassificationDuration(time.Since(start), status)

	s.logger.DebugwCtx(ctx, "Record annotated",
		"environment", record.Environment,
		"fields_classified", annotated,
		"warnings", len(warnings),
	)

	return nil
}

// handleMissingRules applies the configured fallback when no rule set
// has ever been loaded.
func (s *Service) handleMissingRules(ctx context.Context, record *models.RecordEnvelope, start time.Time) error {
	switch s.cfg.Fallback.OnError {
	case constants.FallbackError:
		metrics.FallbackUsageTotal.WithLabelValues("classification", "error", "no_rules").Inc()
		metrics.ClassificationRecordsTotal.WithLabelValues("error").Inc()
		return errors.ErrServiceUnavailable.
			WithDetail("message", "no threshold rules loaded").
			AsRetryable()
	case constants.FallbackSkip:
		metrics.FallbackUsageTotal.WithLabelValues("classification", "skip", "no_rules").Inc()
		metrics.ClassificationRecordsTotal.WithLabelValues("skipped").Inc()
		s.logger.WarnwCtx(ctx, "No rules loaded, passing record through unannotated")
		return nil
	default:
		// Default: every field is marked unclassified so downstream
		// reports still see the derived columns.
		metrics.FallbackUsageTotal.WithLabelValues("classification", "unclassified", "no_rules").Inc()
		for _, field := range record.Fields {
			record.Annotate(field.Name, threshold.LevelUnclassified)
			metrics.IncClassificationField(record.Environment, string(threshold.LevelUnclassified))
		}
		if record.Metadata.Classification != nil {
			record.Metadata.Classification.EvaluatedAt = time.Now()
		}
		metrics.ClassificationRecordsTotal.WithLabelValues("unclassified").Inc()
		metrics.ObserveClassificationDuration(time.Since(start), "unclassified")
		return nil
	}
}

// ActiveRuleSet returns the current rule set snapshot. Callers must not
// mutate it.
func (s *Service) ActiveRuleSet() *threshold.RuleSet {
	s.ruleSetMu.RLock()
	defer s.ruleSetMu.RUnlock()
	return s.ruleSet
}

// RuleCount reports properties with a rule in the active set.
func (s *Service) RuleCount() int {
	return s.ActiveRuleSet().PropertyCount()
}

// LastLoaded reports when the rule set last refreshed successfully.
func (s *Service) LastLoaded() time.Time {
	s.ruleSetMu.RLock()
	defer s.ruleSetMu.RUnlock()
	return s.lastLoaded
}

func (s *Service) ReloadRules(ctx context.Context, skipJitter ...bool) error {
	shouldSkipJitter := len(skipJitter) > 0 && skipJitter[0]

	if err := s.applyJitter(ctx, shouldSkipJitter); err != nil {
		return err
	}

	rs, err := s.repo.GetRuleSet(ctx)
	if err != nil {
		metrics.IncRuleSetReload("error")
		return err
	}

	s.updateRuleSet(ctx, rs)
	metrics.IncRuleSetReload("success")
	return nil
}

// applyJitter desynchronizes reloads across replicas so a shared store
// is not hit by every instance at once.
func (s *Service) applyJitter(ctx context.Context, skipJitter bool) error {
	if skipJitter || s.cfg.Reload.JitterMaxMilliseconds == 0 {
		return nil
	}

	jitter := time.Duration(rand.Intn(s.cfg.Reload.JitterMaxMilliseconds)) * time.Millisecond
	s.logger.DebugwCtx(ctx, "Reload scheduled with jitter",
		"jitter_ms", jitter.Milliseconds(),
	)

	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) updateRuleSet(ctx context.Context, rs *threshold.RuleSet) {
	s.ruleSetMu.Lock()
	s.ruleSet = rs
	s.lastLoaded = time.Now()
	s.ruleSetMu.Unlock()

	metrics.SetClassificationActiveRules(rs.PropertyCount())
	s.logger.InfowCtx(ctx, "Successfully reloaded threshold rules",
		"environments", len(rs.Environments),
		"properties", rs.PropertyCount(),
	)
}

func (s *Service) StartReloader(ctx context.Context) error {
	interval := time.Duration(s.cfg.Reload.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.ReloadRules(ctx); err != nil {
				s.logger.ErrorwCtx(ctx, "Failed to reload threshold rules",
					"error", err,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

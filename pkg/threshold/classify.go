package threshold

import (
	"fmt"
	"strings"
	"time"
)

// Result carries a classification plus any non-fatal warnings produced on
// the way (malformed conditions, unknown risk directions). Warnings are
// for the caller's log; they never stop a batch.
type Result struct {
	Level    Level
	Warnings []string
}

// Classify assigns a risk level to one named property value. Unknown
// environments or properties yield the unclassified level, never an error.
func Classify(environment, property, raw string, rs *RuleSet) Level {
	return ClassifyDetailed(environment, property, raw, rs).Level
}

// ClassifyDetailed is Classify plus warnings.
func ClassifyDetailed(environment, property, raw string, rs *RuleSet) Result {
	return classifyAt(environment, property, raw, rs, time.Now())
}

func classifyAt(environment, property, raw string, rs *RuleSet, now time.Time) Result {
	if rs == nil {
		return Result{Level: LevelUnclassified}
	}

	env, ok := rs.Environments[environment]
	if !ok {
		return Result{Level: LevelUnclassified}
	}

	switch env.Style {
	case StyleOperator:
		rule, ok := env.operatorRule(property)
		if !ok {
			return Result{Level: LevelUnclassified}
		}
		return classifyOperator(rule, raw, now)
	case StyleBanded:
		rule, ok := env.Banded[property]
		if !ok {
			return Result{Level: LevelUnclassified}
		}
		return classifyBanded(rule, raw)
	}
	return Result{Level: LevelUnclassified}
}

// Bucket precedence is fixed: best first, first match wins.
func classifyOperator(rule OperatorRule, raw string, now time.Time) Result {
	if days, ok := ParseSentinel(rule.Red); ok {
		return classifyAge(raw, days, now)
	}

	v, err := SanitizeNumeric(raw)
	if err != nil {
		return Result{Level: LevelInvalidValue}
	}

	var warnings []string
	buckets := []struct {
		expr  string
		level Level
	}{
		{rule.Green, LevelLow},
		{rule.Yellow, LevelMedium},
		{rule.Red, LevelHigh},
	}
	for _, b := range buckets {
		if b.expr == "" {
			continue
		}
		cond, err := ParseCondition(b.expr)
		if err != nil {
			// Malformed condition: treated as no match so the rest of the
			// batch keeps going.
			warnings = append(warnings, err.Error())
			continue
		}
		if cond.Eval(v) {
			return Result{Level: b.level, Warnings: warnings}
		}
	}
	return Result{Level: LevelUnclassified, Warnings: warnings}
}

// classifyAge handles the olderThanNDays sentinel: the raw value is a date
// and only the worst bucket can match.
func classifyAge(raw string, days int, now time.Time) Result {
	t, err := ParseLooseDate(raw)
	if err != nil {
		return Result{Level: LevelInvalidDate}
	}
	if t.Before(now.AddDate(0, 0, -days)) {
		return Result{Level: LevelHigh}
	}
	return Result{Level: LevelUnclassified}
}

func classifyBanded(rule BandedRule, raw string) Result {
	v, err := SanitizeNumeric(raw)
	if err != nil {
		return Result{Level: LevelInvalidValue}
	}

	switch strings.ToLower(strings.TrimSpace(rule.RiskDirection)) {
	case "high":
		// Worst bucket at the low end: v <= High cut is High risk.
		switch {
		case v <= rule.Levels.High:
			return Result{Level: LevelHigh}
		case v <= rule.Levels.Medium:
			return Result{Level: LevelMedium}
		case v <= rule.Levels.Low:
			return Result{Level: LevelLow}
		default:
			return Result{Level: LevelNone}
		}
	case "low":
		// Reversed comparisons: v >= None cut is no risk, falling through
		// to High below the Medium cut.
		switch {
		case v >= rule.Levels.None:
			return Result{Level: LevelNone}
		case v >= rule.Levels.Low:
			return Result{Level: LevelLow}
		case v >= rule.Levels.Medium:
			return Result{Level: LevelMedium}
		default:
			return Result{Level: LevelHigh}
		}
	default:
		return Result{
			Level: LevelUnclassified,
			Warnings: []string{
				fmt.Sprintf("unknown risk direction %q", rule.RiskDirection),
			},
		}
	}
}

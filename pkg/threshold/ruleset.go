package threshold

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoThresholds means the configuration document carries no thresholds
// object at all. Fatal at startup; the evaluator is useless without rules.
var ErrNoThresholds = errors.New("configuration has no thresholds object")

// RuleStyle names one of the two configuration variants. The source formats
// were never reconciled upstream, so both are first-class here.
type RuleStyle string

const (
	// StyleOperator gives each bucket its own comparison expression.
	StyleOperator RuleStyle = "operator"
	// StyleBanded gives scalar cut points plus a risk direction.
	StyleBanded RuleStyle = "banded"
)

// OperatorRule holds per-bucket condition expressions for one property.
// Green is the best bucket and is evaluated first; Red worst and last.
// Any bucket may be empty.
type OperatorRule struct {
	PropertyName string `json:"PropertyName"`
	Green        string `json:"Green,omitempty"`
	Yellow       string `json:"Yellow,omitempty"`
	Red          string `json:"Red,omitempty"`
}

// CutPoints are the four scalar thresholds of a banded rule, named for the
// bucket whose boundary they mark.
type CutPoints struct {
	None   float64 `json:"None"`
	Low    float64 `json:"Low"`
	Medium float64 `json:"Medium"`
	High   float64 `json:"High"`
}

// BandedRule classifies by ordered range comparison against cut points.
// RiskDirection "High" puts the worst bucket at the low end of the scale
// (value <= High cut point is worst); "Low" reverses the comparisons.
type BandedRule struct {
	RiskDirection string    `json:"RiskDirection"`
	Levels        CutPoints `json:"Levels"`
}

// EnvironmentRules holds every rule for one environment in exactly one of
// the two styles.
type EnvironmentRules struct {
	Style    RuleStyle
	Operator []OperatorRule
	Banded   map[string]BandedRule
}

// UnmarshalJSON picks the style by shape: a JSON array is operator style,
// an object is a banded property map.
func (e *EnvironmentRules) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty environment rules")
	}

	if trimmed[0] == '[' {
		var rules []OperatorRule
		if err := json.Unmarshal(trimmed, &rules); err != nil {
			return fmt.Errorf("operator rule list: %w", err)
		}
		e.Style = StyleOperator
		e.Operator = rules
		return nil
	}

	var banded map[string]BandedRule
	if err := json.Unmarshal(trimmed, &banded); err != nil {
		return fmt.Errorf("banded rule map: %w", err)
	}
	e.Style = StyleBanded
	e.Banded = banded
	return nil
}

// operatorRule finds the rule for property, if any. Lookup is linear; rule
// lists are small.
func (e *EnvironmentRules) operatorRule(property string) (OperatorRule, bool) {
	for _, r := range e.Operator {
		if r.PropertyName == property {
			return r, true
		}
	}
	return OperatorRule{}, false
}

// RuleSet maps environment names to their rules. It is immutable once
// built and safe to share across goroutines.
type RuleSet struct {
	Environments map[string]EnvironmentRules
}

// ParseRuleSet decodes a thresholds configuration document. The top-level
// key may be spelled "thresholds" or "Thresholds"; older configs used the
// capitalized form.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid thresholds document: %w", err)
	}

	raw, ok := doc["thresholds"]
	if !ok {
		raw, ok = doc["Thresholds"]
	}
	if !ok {
		return nil, ErrNoThresholds
	}

	var envs map[string]EnvironmentRules
	if err := json.Unmarshal(raw, &envs); err != nil {
		return nil, fmt.Errorf("invalid thresholds object: %w", err)
	}

	return &RuleSet{Environments: envs}, nil
}

// NewRuleSet builds a RuleSet directly, for callers that assemble rules
// from a store rather than a config document.
func NewRuleSet(envs map[string]EnvironmentRules) *RuleSet {
	if envs == nil {
		envs = make(map[string]EnvironmentRules)
	}
	return &RuleSet{Environments: envs}
}

// HasRule reports whether a rule exists for the property in the named
// environment.
func (rs *RuleSet) HasRule(environment, property string) bool {
	if rs == nil {
		return false
	}
	env, ok := rs.Environments[environment]
	if !ok {
		return false
	}
	switch env.Style {
	case StyleOperator:
		_, ok := env.operatorRule(property)
		return ok
	case StyleBanded:
		_, ok := env.Banded[property]
		return ok
	}
	return false
}

// PropertyCount reports the number of properties with a rule, across all
// environments.
func (rs *RuleSet) PropertyCount() int {
	if rs == nil {
		return 0
	}
	n := 0
	for _, env := range rs.Environments {
		switch env.Style {
		case StyleOperator:
			n += len(env.Operator)
		case StyleBanded:
			n += len(env.Banded)
		}
	}
	return n
}

package threshold

// Level is the risk bucket assigned to a single property value.
//
// The source configurations speak two dialects (None/Low/Medium/High and
// none/green/yellow/red); Level is the canonical form and Color maps back
// to the report dialect.
type Level string

const (
	LevelNone   Level = "none"
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"

	// Degraded classifications: the raw value could not be coerced to the
	// type the rule requires. Distinct from LevelNone so callers can tell
	// "no applicable rule" from "bad data".
	LevelInvalidValue Level = "invalid_value"
	LevelInvalidDate  Level = "invalid_date"
)

// LevelUnclassified is the level assigned when no rule applies or no
// condition matches.
const LevelUnclassified = LevelNone

// Color returns the report color conventionally paired with a level.
func (l Level) Color() string {
	switch l {
	case LevelLow:
		return "green"
	case LevelMedium:
		return "yellow"
	case LevelHigh:
		return "red"
	default:
		return "none"
	}
}

// IsRisk reports whether the level represents an actual risk bucket, as
// opposed to no-rule or degraded input.
func (l Level) IsRisk() bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}

// IsInvalid reports whether the level records a coercion failure.
func (l Level) IsInvalid() bool {
	return l == LevelInvalidValue || l == LevelInvalidDate
}

package threshold

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedCondition wraps every condition parse failure. Callers treat a
// malformed condition as "does not match" so a single bad expression cannot
// abort a bulk classification run.
var ErrMalformedCondition = errors.New("malformed condition")

type compareOp string

const (
	opGE compareOp = ">="
	opLE compareOp = "<="
	opEQ compareOp = "=="
	opNE compareOp = "!="
	opGT compareOp = ">"
	opLT compareOp = "<"
)

// Prefix matching order matters: two-character operators first.
var compareOps = []compareOp{opGE, opLE, opEQ, opNE, opGT, opLT}

type logicalOp string

const (
	logicalAnd logicalOp = "&&"
	logicalOr  logicalOp = "||"
)

// comparison is a single operator plus numeric operand, tested against the
// input value.
type comparison struct {
	op      compareOp
	operand float64
}

func (c comparison) eval(v float64) bool {
	switch c.op {
	case opGE:
		return v >= c.operand
	case opLE:
		return v <= c.operand
	case opEQ:
		return v == c.operand
	case opNE:
		return v != c.operand
	case opGT:
		return v > c.operand
	case opLT:
		return v < c.operand
	}
	return false
}

// Condition is a parsed threshold expression: one comparison, optionally
// joined to a second by a single && or ||. The grammar is fixed and the
// tree is evaluated directly; expressions are never executed as code.
type Condition struct {
	left    comparison
	logical logicalOp
	right   *comparison
}

// Eval tests the condition against a numeric value.
func (c *Condition) Eval(v float64) bool {
	if c.right == nil {
		return c.left.eval(v)
	}
	if c.logical == logicalOr {
		return c.left.eval(v) || c.right.eval(v)
	}
	return c.left.eval(v) && c.right.eval(v)
}

// ParseCondition parses an expression like ">=100 && <200" or "<50".
// At most one logical join is allowed.
func ParseCondition(expr string) (*Condition, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrMalformedCondition)
	}

	parts, logical, err := splitLogical(trimmed)
	if err != nil {
		return nil, err
	}

	left, err := parseComparison(parts[0])
	if err != nil {
		return nil, err
	}

	cond := &Condition{left: left, logical: logical}
	if len(parts) == 2 {
		right, err := parseComparison(parts[1])
		if err != nil {
			return nil, err
		}
		cond.right = &right
	}
	return cond, nil
}

func splitLogical(expr string) ([]string, logicalOp, error) {
	andCount := strings.Count(expr, string(logicalAnd))
	orCount := strings.Count(expr, string(logicalOr))

	switch {
	case andCount == 0 && orCount == 0:
		return []string{expr}, "", nil
	case andCount == 1 && orCount == 0:
		return strings.SplitN(expr, string(logicalAnd), 2), logicalAnd, nil
	case andCount == 0 && orCount == 1:
		return strings.SplitN(expr, string(logicalOr), 2), logicalOr, nil
	}
	return nil, "", fmt.Errorf("%w: at most one logical operator allowed in %q", ErrMalformedCondition, expr)
}

func parseComparison(s string) (comparison, error) {
	trimmed := strings.TrimSpace(s)
	for _, op := range compareOps {
		if !strings.HasPrefix(trimmed, string(op)) {
			continue
		}
		operandText := strings.TrimSpace(strings.TrimPrefix(trimmed, string(op)))
		operand, err := strconv.ParseFloat(operandText, 64)
		if err != nil {
			return comparison{}, fmt.Errorf("%w: bad operand %q", ErrMalformedCondition, operandText)
		}
		return comparison{op: op, operand: operand}, nil
	}
	return comparison{}, fmt.Errorf("%w: no comparison operator in %q", ErrMalformedCondition, trimmed)
}

// Sentinel conditions force date interpretation of the raw value instead of
// numeric. The canonical token is "olderThan7Days"; spaced variants like
// "older than 7 days" are tolerated.
var sentinelPattern = regexp.MustCompile(`(?i)^olderthan(\d+)days$`)

// ParseSentinel reports whether expr is an age sentinel and, if so, the age
// in days it names.
func ParseSentinel(expr string) (days int, ok bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(expr), " ", "")
	m := sentinelPattern.FindStringSubmatch(normalized)
	if m == nil {
		return 0, false
	}
	days, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return days, true
}

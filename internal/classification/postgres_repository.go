package classification

import (
	"context"
	"database/sql"
	"fmt"

	"riskgrade/pkg/threshold"
)

// PostgresRepository assembles the rule set from the threshold_rules
// table managed by the management service.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetRuleSet(ctx context.Context) (*threshold.RuleSet, error) {
	query := `
		SELECT environment, property_name, style,
		       green_expr, yellow_expr, red_expr,
		       risk_direction, level_none, level_low, level_medium, level_high
		FROM threshold_rules
		WHERE enabled = true
		ORDER BY environment, property_name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query threshold rules: %w", err)
	}
	defer rows.Close()

	envs := make(map[string]threshold.EnvironmentRules)

	for rows.Next() {
		var (
			environment, propertyName, style    string
			greenExpr, yellowExpr, redExpr      sql.NullString
			riskDirection                       sql.NullString
			levelNone, levelLow, levelMed, levelHigh sql.NullFloat64
		)

		if err := rows.Scan(
			&environment,
			&propertyName,
			&style,
			&greenExpr,
			&yellowExpr,
			&redExpr,
			&riskDirection,
			&levelNone,
			&levelLow,
			&levelMed,
			&levelHigh,
		); err != nil {
			return nil, fmt.Errorf("failed to scan threshold rule: %w", err)
		}

		env, exists := envs[environment]

		switch threshold.RuleStyle(style) {
		case threshold.StyleOperator:
			if exists && env.Style != threshold.StyleOperator {
				return nil, fmt.Errorf("environment %s mixes rule styles", environment)
			}
			env.Style = threshold.StyleOperator
			env.Operator = append(env.Operator, threshold.OperatorRule{
				PropertyName: propertyName,
				Green:        greenExpr.String,
				Yellow:       yellowExpr.String,
				Red:          redExpr.String,
			})
		case threshold.StyleBanded:
			if exists && env.Style != threshold.StyleBanded {
				return nil, fmt.Errorf("environment %s mixes rule styles", environment)
			}
			env.Style = threshold.StyleBanded
			if env.Banded == nil {
				env.Banded = make(map[string]threshold.BandedRule)
			}
			env.Banded[propertyName] = threshold.BandedRule{
				RiskDirection: riskDirection.String,
				Levels: threshold.CutPoints{
					None:   levelNone.Float64,
					Low:    levelLow.Float64,
					Medium: levelMed.Float64,
					High:   levelHigh.Float64,
				},
			}
		default:
			return nil, fmt.Errorf("unknown rule style %q for %s/%s", style, environment, propertyName)
		}

		envs[environment] = env
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return threshold.NewRuleSet(envs), nil
}

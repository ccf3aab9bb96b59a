package management

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"riskgrade/pkg/errors"
	"riskgrade/pkg/metrics"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const ruleColumns = `id, environment, property_name, style, green_expr, yellow_expr, red_expr,
	risk_direction, level_none, level_low, level_medium, level_high, enabled, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, rule *ThresholdRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	start := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO threshold_rules (id, environment, property_name, style, green_expr, yellow_expr, red_expr,
			risk_direction, level_none, level_low, level_medium, level_high, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		rule.ID, rule.Environment, rule.PropertyName, rule.Style,
		nullString(rule.GreenExpr), nullString(rule.YellowExpr), nullString(rule.RedExpr),
		nullString(rule.RiskDirection), rule.LevelNone, rule.LevelLow, rule.LevelMedium, rule.LevelHigh,
		rule.Enabled, rule.CreatedAt, rule.UpdatedAt)
	r.observe("insert", "threshold_rules", start, err)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.ErrConflict.WithDetail("message", "a rule for this environment and property already exists").WithCause(err)
		}
		return errors.Wrap(err, errors.ErrInternal)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, environment string, limit, offset int) ([]ThresholdRule, int, error) {
	var total int
	start := time.Now()
	var err error
	if environment != "" {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM threshold_rules WHERE environment = $1`, environment).Scan(&total)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM threshold_rules`).Scan(&total)
	}
	r.observe("count", "threshold_rules", start, err)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrInternal)
	}

	var rows *sql.Rows
	start = time.Now()
	if environment != "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+ruleColumns+` FROM threshold_rules
			WHERE environment = $1
			ORDER BY environment, property_name
			LIMIT $2 OFFSET $3`, environment, limit, offset)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+ruleColumns+` FROM threshold_rules
			ORDER BY environment, property_name
			LIMIT $1 OFFSET $2`, limit, offset)
	}
	r.observe("select", "threshold_rules", start, err)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrInternal)
	}
	defer rows.Close()

	rules, err := scanRules(rows)
	if err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*ThresholdRule, error) {
	start := time.Now()
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM threshold_rules WHERE id = $1`, id)
	rule, err := scanRule(row)
	r.observe("select", "threshold_rules", start, err)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}
	return rule, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rule *ThresholdRule) error {
	rule.UpdatedAt = time.Now().UTC()
	start := time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE threshold_rules
		SET green_expr = $1, yellow_expr = $2, red_expr = $3, risk_direction = $4,
			level_none = $5, level_low = $6, level_medium = $7, level_high = $8,
			enabled = $9, updated_at = $10
		WHERE id = $11`,
		nullString(rule.GreenExpr), nullString(rule.YellowExpr), nullString(rule.RedExpr),
		nullString(rule.RiskDirection), rule.LevelNone, rule.LevelLow, rule.LevelMedium, rule.LevelHigh,
		rule.Enabled, rule.UpdatedAt, rule.ID)
	r.observe("update", "threshold_rules", start, err)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	res, err := r.db.ExecContext(ctx, `DELETE FROM threshold_rules WHERE id = $1`, id)
	r.observe("delete", "threshold_rules", start, err)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListEnabled(ctx context.Context, environment string) ([]ThresholdRule, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM threshold_rules
		WHERE enabled = true AND environment = $1
		ORDER BY property_name`, environment)
	r.observe("select", "threshold_rules", start, err)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (r *PostgresRepository) observe(operation, table string, start time.Time, err error) {
	status := "success"
	if err != nil && err != sql.ErrNoRows {
		status = "error"
	}
	metrics.IncDatabaseQuery("management", table, operation, status)
	metrics.ObserveDatabaseQueryDuration("management", table, operation, time.Since(start))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*ThresholdRule, error) {
	var rule ThresholdRule
	var green, yellow, red, direction sql.NullString
	var none, low, medium, high sql.NullFloat64
	err := row.Scan(&rule.ID, &rule.Environment, &rule.PropertyName, &rule.Style,
		&green, &yellow, &red, &direction, &none, &low, &medium, &high,
		&rule.Enabled, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rule.GreenExpr = green.String
	rule.YellowExpr = yellow.String
	rule.RedExpr = red.String
	rule.RiskDirection = direction.String
	if none.Valid {
		rule.LevelNone = &none.Float64
	}
	if low.Valid {
		rule.LevelLow = &low.Float64
	}
	if medium.Valid {
		rule.LevelMedium = &medium.Float64
	}
	if high.Valid {
		rule.LevelHigh = &high.Float64
	}
	return &rule, nil
}

func scanRules(rows *sql.Rows) ([]ThresholdRule, error) {
	var rules []ThresholdRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}
	return rules, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

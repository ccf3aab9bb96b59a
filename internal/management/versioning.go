package management

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"riskgrade/pkg/errors"
	"riskgrade/pkg/metrics"
)

// RuleVersion is a full snapshot of a rule taken before each mutation,
// so operators can see what a rule looked like at any point.
type RuleVersion struct {
	ID        string          `json:"id"`
	RuleID    string          `json:"rule_id"`
	Version   int             `json:"version"`
	RuleData  json.RawMessage `json:"rule_data"`
	ChangedBy string          `json:"changed_by"`
	CreatedAt time.Time       `json:"created_at"`
}

type AuditLog struct {
	ID          string    `json:"id"`
	RuleID      string    `json:"rule_id"`
	Action      string    `json:"action"`
	ChangedBy   string    `json:"changed_by"`
	Environment string    `json:"environment"`
	CreatedAt   time.Time `json:"created_at"`
}

type PostgresVersioningRepository struct {
	db *sql.DB
}

func NewPostgresVersioningRepository(db *sql.DB) *PostgresVersioningRepository {
	return &PostgresVersioningRepository{db: db}
}

func (r *PostgresVersioningRepository) SaveVersion(ctx context.Context, version *RuleVersion) error {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	version.CreatedAt = time.Now().UTC()

	start := time.Now()
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1 FROM rule_versions WHERE rule_id = $1`,
		version.RuleID).Scan(&version.Version)
	r.observe("select", "rule_versions", start, err)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}

	start = time.Now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO rule_versions (id, rule_id, version, rule_data, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		version.ID, version.RuleID, version.Version, version.RuleData, version.ChangedBy, version.CreatedAt)
	r.observe("insert", "rule_versions", start, err)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}
	return nil
}

func (r *PostgresVersioningRepository) ListVersions(ctx context.Context, ruleID string, limit int) ([]RuleVersion, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, rule_id, version, rule_data, changed_by, created_at
		FROM rule_versions
		WHERE rule_id = $1
		ORDER BY version DESC
		LIMIT $2`, ruleID, limit)
	r.observe("select", "rule_versions", start, err)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}
	defer rows.Close()

	var versions []RuleVersion
	for rows.Next() {
		var v RuleVersion
		if err := rows.Scan(&v.ID, &v.RuleID, &v.Version, &v.RuleData, &v.ChangedBy, &v.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}
	return versions, nil
}

func (r *PostgresVersioningRepository) SaveAuditLog(ctx context.Context, log *AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	log.CreatedAt = time.Now().UTC()

	start := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rule_audit_logs (id, rule_id, action, changed_by, environment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		log.ID, log.RuleID, log.Action, log.ChangedBy, log.Environment, log.CreatedAt)
	r.observe("insert", "rule_audit_logs", start, err)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}
	return nil
}

func (r *PostgresVersioningRepository) ListAuditLogs(ctx context.Context, ruleID string, limit, offset int) ([]AuditLog, int, error) {
	var total int
	start := time.Now()
	var err error
	if ruleID != "" {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM rule_audit_logs WHERE rule_id = $1`, ruleID).Scan(&total)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rule_audit_logs`).Scan(&total)
	}
	r.observe("count", "rule_audit_logs", start, err)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrInternal)
	}

	var rows *sql.Rows
	start = time.Now()
	if ruleID != "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, rule_id, action, changed_by, environment, created_at
			FROM rule_audit_logs
			WHERE rule_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`, ruleID, limit, offset)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, rule_id, action, changed_by, environment, created_at
			FROM rule_audit_logs
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`, limit, offset)
	}
	r.observe("select", "rule_audit_logs", start, err)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrInternal)
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(&l.ID, &l.RuleID, &l.Action, &l.ChangedBy, &l.Environment, &l.CreatedAt); err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrInternal)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrInternal)
	}
	return logs, total, nil
}

func (r *PostgresVersioningRepository) observe(operation, table string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.IncDatabaseQuery("management", table, operation, status)
	metrics.ObserveDatabaseQueryDuration("management", table, operation, time.Since(start))
}

func ruleToJSON(rule *ThresholdRule) json.RawMessage {
	data, err := json.Marshal(rule)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ledgerline/recall/internal/service"
)

// GetConfigValue reads a numeric configuration value. Callers own the
// default when the key is missing or the store fails.
func (s *SQLiteStore) GetConfigValue(ctx context.Context, key string) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(key, "key"); err != nil {
		return 0, err
	}

	var value float64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrConfigNotFound, key)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read config value %q: %w", key, err)
	}
	return value, nil
}

// SetConfigValue writes a numeric configuration value. Last writer wins;
// the escalation threshold is advisory state and does not need stricter
// coordination.
func (s *SQLiteStore) SetConfigValue(ctx context.Context, key string, value float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set config value %q: %w", key, err)
	}
	return nil
}

// SaveThresholdAudit appends one threshold adjustment to the audit trail.
func (s *SQLiteStore) SaveThresholdAudit(ctx context.Context, audit *service.ThresholdAudit) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if audit == nil {
		return fmt.Errorf("%w: audit", ErrNilParameter)
	}

	triggers, err := json.Marshal(audit.Triggers)
	if err != nil {
		return fmt.Errorf("failed to marshal audit triggers: %w", err)
	}
	metrics, err := json.Marshal(audit.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metrics: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO threshold_audit (previous, new, triggers, metrics, adjusted_at)
		VALUES (?, ?, ?, ?, ?)`,
		audit.Previous, audit.New, string(triggers), string(metrics), audit.AdjustedAt)
	if err != nil {
		return fmt.Errorf("failed to save threshold audit: %w", err)
	}
	return nil
}

// ThresholdAudits returns the audit trail, newest first, limited to n
// entries (all entries when n <= 0).
func (s *SQLiteStore) ThresholdAudits(ctx context.Context, n int) ([]service.ThresholdAudit, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT previous, new, triggers, metrics, adjusted_at
		FROM threshold_audit ORDER BY adjusted_at DESC, id DESC`
	args := []any{}
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query threshold audits: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var audits []service.ThresholdAudit
	for rows.Next() {
		var (
			audit    service.ThresholdAudit
			triggers string
			metrics  string
		)
		if err := rows.Scan(&audit.Previous, &audit.New, &triggers, &metrics, &audit.AdjustedAt); err != nil {
			return nil, fmt.Errorf("failed to scan threshold audit: %w", err)
		}
		if err := json.Unmarshal([]byte(triggers), &audit.Triggers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit triggers: %w", err)
		}
		if err := json.Unmarshal([]byte(metrics), &audit.Metrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit metrics: %w", err)
		}
		audits = append(audits, audit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate threshold audits: %w", err)
	}
	return audits, nil
}

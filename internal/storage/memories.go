package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerline/recall/internal/model"
)

const memoryColumns = `id, type, payload, pattern_type, pattern_data, pattern_threshold,
	vendor_id, context, confidence, success_rate, usage_count, created_at, last_used`

// SaveMemory inserts or replaces a memory record.
func (s *SQLiteStore) SaveMemory(ctx context.Context, memory *model.Memory) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMemory(memory); err != nil {
		return err
	}

	payload, err := marshalPayload(memory)
	if err != nil {
		return err
	}
	contextJSON, err := json.Marshal(memory.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal memory context: %w", err)
	}

	var lastUsed *time.Time
	if !memory.LastUsed.IsZero() {
		lastUsed = &memory.LastUsed
	}

	query := `
		INSERT OR REPLACE INTO memories (
			id, type, payload, pattern_type, pattern_data, pattern_threshold,
			vendor_id, context, confidence, success_rate, usage_count,
			created_at, last_used
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		memory.ID, string(memory.Type), string(payload),
		memory.Pattern.Type, nullableString(memory.Pattern.Data), memory.Pattern.Threshold,
		memory.Context.VendorID, string(contextJSON),
		memory.Confidence, memory.SuccessRate, memory.UsageCount,
		memory.CreatedAt, lastUsed,
	)
	if err != nil {
		return fmt.Errorf("failed to save memory: %w", err)
	}

	slog.Debug("saved memory", "id", memory.ID, "type", memory.Type)
	return nil
}

// UpdateMemoryScores persists the mutable score fields of a memory.
// Writes are last-writer-wins; see the MemoryStore contract.
func (s *SQLiteStore) UpdateMemoryScores(ctx context.Context, memory *model.Memory) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMemory(memory); err != nil {
		return err
	}

	var lastUsed *time.Time
	if !memory.LastUsed.IsZero() {
		lastUsed = &memory.LastUsed
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE memories
		SET confidence = ?, success_rate = ?, usage_count = ?, last_used = ?
		WHERE id = ?`,
		memory.Confidence, memory.SuccessRate, memory.UsageCount, lastUsed, memory.ID)
	if err != nil {
		return fmt.Errorf("failed to update memory scores: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrMemoryNotFound, memory.ID)
	}
	return nil
}

// GetMemory retrieves a single memory by id.
func (s *SQLiteStore) GetMemory(ctx context.Context, id string) (*model.Memory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)

	memory, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMemoryNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return memory, nil
}

// FindMemoriesByVendor returns all memories scoped to the given vendor,
// most recently used first.
func (s *SQLiteStore) FindMemoriesByVendor(ctx context.Context, vendorID string) ([]model.Memory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(vendorID, "vendorID"); err != nil {
		return nil, err
	}

	return s.queryMemories(ctx,
		`SELECT `+memoryColumns+` FROM memories
		 WHERE vendor_id = ?
		 ORDER BY last_used DESC, id`, vendorID)
}

// FindMemoriesByType returns all memories of one variant.
func (s *SQLiteStore) FindMemoriesByType(ctx context.Context, memoryType model.MemoryType) ([]model.Memory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryMemories(ctx,
		`SELECT `+memoryColumns+` FROM memories
		 WHERE type = ?
		 ORDER BY last_used DESC, id`, string(memoryType))
}

// GetAllMemories returns every stored memory.
func (s *SQLiteStore) GetAllMemories(ctx context.Context) ([]model.Memory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryMemories(ctx,
		`SELECT `+memoryColumns+` FROM memories ORDER BY last_used DESC, id`)
}

func (s *SQLiteStore) queryMemories(ctx context.Context, query string, args ...any) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var memories []model.Memory
	for rows.Next() {
		memory, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, *memory)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memories: %w", err)
	}
	return memories, nil
}

// scanner abstracts sql.Row and sql.Rows for scanMemory.
type scanner interface {
	Scan(dest ...any) error
}

func scanMemory(row scanner) (*model.Memory, error) {
	var (
		memory      model.Memory
		memType     string
		payload     string
		patternData sql.NullString
		contextJSON string
		lastUsed    sql.NullTime
	)

	err := row.Scan(
		&memory.ID, &memType, &payload,
		&memory.Pattern.Type, &patternData, &memory.Pattern.Threshold,
		&memory.Context.VendorID, &contextJSON,
		&memory.Confidence, &memory.SuccessRate, &memory.UsageCount,
		&memory.CreatedAt, &lastUsed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan memory: %w", err)
	}

	memory.Type = model.MemoryType(memType)
	if patternData.Valid {
		memory.Pattern.Data = json.RawMessage(patternData.String)
	}
	if lastUsed.Valid {
		memory.LastUsed = lastUsed.Time
	}

	if err := json.Unmarshal([]byte(contextJSON), &memory.Context); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memory context: %w", err)
	}

	if err := unmarshalPayload(&memory, []byte(payload)); err != nil {
		return nil, err
	}

	return &memory, nil
}

// marshalPayload serializes the variant payload matching the memory type.
func marshalPayload(memory *model.Memory) ([]byte, error) {
	var payload any
	switch memory.Type {
	case model.MemoryTypeVendor:
		payload = memory.Vendor
	case model.MemoryTypeCorrection:
		payload = memory.Correction
	case model.MemoryTypeResolution:
		payload = memory.Resolution
	default:
		return nil, fmt.Errorf("cannot marshal payload for memory type %q", memory.Type)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal memory payload: %w", err)
	}
	return data, nil
}

// unmarshalPayload deserializes the variant payload into the right field.
func unmarshalPayload(memory *model.Memory, data []byte) error {
	switch memory.Type {
	case model.MemoryTypeVendor:
		memory.Vendor = &model.VendorData{}
		if err := json.Unmarshal(data, memory.Vendor); err != nil {
			return fmt.Errorf("failed to unmarshal vendor payload: %w", err)
		}
	case model.MemoryTypeCorrection:
		memory.Correction = &model.CorrectionData{}
		if err := json.Unmarshal(data, memory.Correction); err != nil {
			return fmt.Errorf("failed to unmarshal correction payload: %w", err)
		}
	case model.MemoryTypeResolution:
		memory.Resolution = &model.ResolutionData{}
		if err := json.Unmarshal(data, memory.Resolution); err != nil {
			return fmt.Errorf("failed to unmarshal resolution payload: %w", err)
		}
	default:
		return fmt.Errorf("unknown memory type in store: %q", memory.Type)
	}
	return nil
}

func nullableString(data json.RawMessage) *string {
	if len(data) == 0 {
		return nil
	}
	s := string(data)
	return &s
}

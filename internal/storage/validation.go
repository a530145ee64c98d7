package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerline/recall/internal/common"
	"github.com/ledgerline/recall/internal/model"
)

// Validation errors. The not-found sentinels wrap common.ErrNotFound so
// callers can classify misses without importing storage.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrMemoryNotFound = fmt.Errorf("memory %w", common.ErrNotFound)
	ErrConfigNotFound = fmt.Errorf("config value %w", common.ErrNotFound)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMemory validates a memory record at the storage boundary.
func validateMemory(memory *model.Memory) error {
	if memory == nil {
		return fmt.Errorf("%w: memory", ErrNilParameter)
	}
	return memory.Validate()
}

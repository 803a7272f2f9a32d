// Package catalog loads the policy knowledge base once at startup and
// serves it as an immutable in-memory snapshot.
package catalog

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/saranya/insurewise/internal/domain"
)

// Store is a read-only snapshot of the policy catalog. It is populated
// once before the server starts and never mutated, so concurrent reads
// need no coordination.
type Store struct {
	policies []domain.PolicyRecord
}

// NewStore wraps an already-built policy list, primarily for tests that
// fabricate catalogs.
func NewStore(policies []domain.PolicyRecord) *Store {
	return &Store{policies: policies}
}

// Load reads the catalog file at path. A missing or malformed file is not
// fatal: the condition is logged and an empty store is returned so the
// service stays up in a degraded state. Relative paths that do not resolve
// from the working directory are retried relative to the executable.
func Load(logger *slog.Logger, path string) *Store {
	resolved := resolvePath(path)

	data, err := os.ReadFile(resolved)
	if err != nil {
		logger.Warn("catalog file unavailable, starting with empty catalog",
			"path", resolved, "error", err)
		return NewStore(nil)
	}

	var policies []domain.PolicyRecord
	if err := json.Unmarshal(data, &policies); err != nil {
		logger.Warn("catalog file malformed, starting with empty catalog",
			"path", resolved, "error", err)
		return NewStore(nil)
	}

	logger.Info("catalog loaded", "path", resolved, "policies", len(policies))
	return NewStore(policies)
}

// Policies returns the full catalog in load order. Callers must treat the
// slice as read-only.
func (s *Store) Policies() []domain.PolicyRecord {
	return s.policies
}

// Count returns the number of loaded policies.
func (s *Store) Count() int {
	return len(s.policies)
}

func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	candidate := filepath.Join(filepath.Dir(exe), path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}

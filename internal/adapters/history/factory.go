package history

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
)

// NopRecorder discards turns. Used when history is disabled.
type NopRecorder struct{}

// RecordTurn implements core.TurnRecorder.
func (NopRecorder) RecordTurn(context.Context, core.TurnRecord) error { return nil }

// NewRecorder returns a SQLite-backed recorder, or a NopRecorder when
// history is disabled. The returned close function is always safe to call.
func NewRecorder(enabled bool, path string, opts ...Option) (core.TurnRecorder, func() error, error) {
	if !enabled {
		return NopRecorder{}, func() error { return nil }, nil
	}
	if !strings.HasSuffix(path, ".db") {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
	}
	store, err := Open(path, opts...)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

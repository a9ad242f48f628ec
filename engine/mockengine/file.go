package mockengine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
)

// file reads cfg.FilePath as a JSON array and picks one element per
// cfg.Selection (spec.md §4.1's File strategy). "sequential" resolves
// spec.md §9's open question via a per-path cursor in the State Store
// (engine/state.NextFileCursor).
func (e *Engine) file(cfg *config.MockConfig) (any, error) {
	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("failed to read mock file %q: %w", cfg.FilePath, err), core.CodeStrategyFailure, nil)
	}
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, core.NewError(fmt.Errorf("failed to parse mock file %q as a JSON array: %w", cfg.FilePath, err), core.CodeStrategyFailure, nil)
	}
	if len(items) == 0 {
		return nil, nil
	}
	var idx int
	switch cfg.Selection {
	case config.FileSelectionSequential:
		idx = e.State.NextFileCursor(cfg.FilePath, len(items))
	default:
		idx = rand.Intn(len(items))
	}
	return items[idx], nil
}

package treebuilder

import "context"

// Persister stores committed engine state between runs. The engine
// calls Save after Initialize and after every committed mutation; a
// Save failure is logged and never fails the mutation that triggered
// it. Load reports false when no saved state exists.
type Persister interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, bool, error)
}

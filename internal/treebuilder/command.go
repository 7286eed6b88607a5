package treebuilder

import (
	"context"
	"fmt"

	"github.com/san-kum/mlviz/internal/mltree"
)

// Command is the closed set of engine operations a page can dispatch.
// Only this package can implement it, so the Dispatch switch stays
// exhaustive.
type Command interface{ isCommand() }

// InitializeCmd resets the tree to a single root leaf over all samples.
type InitializeCmd struct{}

// SelectNodeCmd selects the node at Path. A nil Path clears the
// selection and everything hanging off it.
type SelectNodeCmd struct{ Path *mltree.Path }

// LoadFeatureStatsCmd picks Feature for the selected leaf and requests
// its split statistics.
type LoadFeatureStatsCmd struct{ Feature int }

// UpdateThresholdCmd moves the candidate threshold for the selected
// feature.
type UpdateThresholdCmd struct{ Value float64 }

// SplitNodeCmd splits the selected leaf at the chosen feature and
// threshold.
type SplitNodeCmd struct{}

// MarkLeafCmd collapses the selected split back into an aggregated leaf.
type MarkLeafCmd struct{}

func (InitializeCmd) isCommand()       {}
func (SelectNodeCmd) isCommand()       {}
func (LoadFeatureStatsCmd) isCommand() {}
func (UpdateThresholdCmd) isCommand()  {}
func (SplitNodeCmd) isCommand()        {}
func (MarkLeafCmd) isCommand()         {}

// Dispatch routes a command to its operation.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case InitializeCmd:
		return e.Initialize(ctx)
	case SelectNodeCmd:
		return e.SelectNode(c.Path)
	case LoadFeatureStatsCmd:
		return e.LoadFeatureStats(ctx, c.Feature)
	case UpdateThresholdCmd:
		return e.UpdateThreshold(c.Value)
	case SplitNodeCmd:
		return e.SplitNode(ctx)
	case MarkLeafCmd:
		return e.MarkAsLeaf(ctx)
	default:
		return fmt.Errorf("treebuilder: unhandled command %T", cmd)
	}
}

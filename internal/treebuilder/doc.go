// Package treebuilder drives interactive decision-tree construction:
// a user selects a node, inspects per-feature statistics, picks a
// threshold and splits, or collapses a subtree back into a leaf.
//
// The [Engine] owns a single immutable tree plus the transient
// selection around it. All state lives behind one mutex; statistics
// arrive asynchronously from a [stats.Provider] and are committed only
// when they still match the live selection, so slow responses for a
// node the user has moved away from are dropped, never merged.
//
// Mutations replace the tree wholesale through [mltree.ReplaceAt];
// readers holding an old [Snapshot] keep a consistent view. Committed
// structural changes flow to an optional [Persister] and to
// subscribers, in that order, on the mutating goroutine.
package treebuilder

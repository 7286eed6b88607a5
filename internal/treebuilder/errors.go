package treebuilder

import "errors"

var (
	// ErrNoSelection is returned by operations that need a selected node.
	ErrNoSelection = errors.New("treebuilder: no node selected")

	// ErrNotLeaf is returned when an operation requires the selected
	// node to be a leaf.
	ErrNotLeaf = errors.New("treebuilder: selected node is not a leaf")

	// ErrNotSplit is returned when an operation requires the selected
	// node to be a split.
	ErrNotSplit = errors.New("treebuilder: selected node is not a split")

	// ErrNoFeature is returned by split attempts before a feature has
	// been chosen for the selected node.
	ErrNoFeature = errors.New("treebuilder: no feature selected")

	// ErrNoThreshold is returned by split attempts before a threshold
	// has been chosen for the selected node.
	ErrNoThreshold = errors.New("treebuilder: no threshold selected")

	// ErrBadThreshold rejects NaN and infinite threshold values.
	ErrBadThreshold = errors.New("treebuilder: threshold is not a finite number")

	// ErrEmptyPartition is returned when a proposed split would leave
	// one child with zero samples.
	ErrEmptyPartition = errors.New("treebuilder: split leaves one side empty")

	// ErrNoProvider is returned by LoadFeatureStats when the engine was
	// built without a statistics provider.
	ErrNoProvider = errors.New("treebuilder: no statistics provider configured")
)

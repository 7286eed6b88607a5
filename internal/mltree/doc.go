// Package mltree implements binary decision trees for classification.
//
// The package holds the data model shared by the interactive tree builder
// and the statistics layer:
//
//   - [Node]: a tree node, either a leaf with class counts or a split
//     with a feature/threshold rule and exactly two children
//   - [Path]: a node address as the sequence of branches from the root
//   - [Histogram]: per-class feature-value distribution attached to nodes
//   - [Criterion]: impurity measures (Gini, entropy)
//
// Trees are treated as immutable values: [ReplaceAt] returns a new tree
// sharing untouched subtrees with the input, so concurrent readers can
// keep using an old root while a new one is being built.
//
// # Splitting Rule
//
// A split routes a sample left when value <= threshold and right
// otherwise. Every split therefore partitions its samples exactly, and
// the sample count of any split equals the sum of its children's counts.
package mltree

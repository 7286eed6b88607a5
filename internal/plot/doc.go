// Package plot turns datasets and decision boundaries into drawings on
// a [viz.Canvas], routed by feature dimensionality:
//
//   - [DetectDimensions] / [DimensionsOf]: classify a feature count or
//     raw sample rows into 1D/2D/3D
//   - [Bounds] / [CalculateBounds]: padded per-axis extents over data
//     points and boundary meshes
//   - [Transform]: the zoom/pan affine applied on top of the
//     data-to-pixel mapping
//   - [MeshGrid]: evaluation grids for decision-boundary shading
//   - [ClassifyMesh]: parallel classifier sweeps over those grids
//   - [SelectRenderer]: picks the renderer for a dimensionality
//
// Dimensionality is a closed set. Every consumer switches over
// [Dimensions] exhaustively, so out-of-range feature selections are
// rejected once, up front, by [DetectDimensions].
package plot

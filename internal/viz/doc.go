// Package viz provides the terminal render targets the plot layer
// draws on:
//
//   - [Canvas]: Braille-based pixel canvas with a per-cell color layer
//     and a text overlay for axis labels
//   - [Camera]: perspective projection for 3D scatter clouds
//   - [PointCloud]: depth-sorted colored samples plus reference edges
//
// A canvas cell packs 2x4 sub-pixels into one braille rune, so a plot
// area of W x H cells addresses (W*2) x (H*4) pixels. Colors apply per
// cell, not per pixel; when classes collide inside a cell the most
// recently drawn one wins.
package viz

// Package imaging provides the pixel-level operations shared by the
// segmentation pipeline: image loading and caching, grayscale conversion
// and binarization, directional morphology for ruling-line isolation, and
// connected-component contour extraction.
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. Functions treat their
// input images as read-only and allocate fresh output buffers; no pipeline
// stage ever mutates another stage's image.
package imaging

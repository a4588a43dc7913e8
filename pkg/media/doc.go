// Package media models a post as a tree of items and resolves that tree
// into files on disk.
//
// Carousel children are walked concurrently and named by position. Video
// leaves go through a DASH pipeline when a manifest is present and fall
// back to the direct video URL; image leaves use the widest display
// resource. Items with nothing to extract count as unavailable rather than
// failing.
package media

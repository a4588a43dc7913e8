// Package dash rebuilds Instagram videos from their DASH manifests.
//
// Instagram serves single-period, SegmentBase manifests: every representation
// is one fragmented MP4 file addressed by byte ranges. ParseManifest reads the
// XML, SelectVideoSet/SelectAudioSet and PickBestRepresentation choose the
// tracks, Assembler fetches the initialization range followed by the media
// ranges, and Pipeline hands both streams to a Muxer.
package dash

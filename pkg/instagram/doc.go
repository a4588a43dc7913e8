// Package instagram turns post URLs into media.Item trees.
//
// ParsePostURL validates a link and extracts its shortcode before any
// network I/O. Client.FetchPost requests the post's JSON and ParsePost
// decodes the envelopes Instagram is known to return:
//
//	graphql.shortcode_media
//	data.xdt_shortcode_media
//	data.shortcode_media
//	items[0]
//
// A bare post object is also accepted. Anything else goes through a
// bounded best-effort scan and yields ErrNoMediaItem when nothing matches.
package instagram

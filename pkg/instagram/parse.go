package instagram

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"time"

	errs "igfetch/pkg/errors"
	"igfetch/pkg/media"
)

// ErrNoMediaItem means the response parsed but held no recognisable post
var ErrNoMediaItem = errors.New("no media item found in response")

const maxScanDepth = 8

// ParsePost extracts the post tree from a post endpoint response.
//
// The known envelopes are tried first, then a bare post object. As a last
// resort the document is scanned, at most maxScanDepth levels deep, for an
// object that has a shortcode and an owner username.
func ParsePost(body []byte) (*media.Item, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errs.NewParseError("empty post response", nil)
	}
	if body[0] == '<' {
		return nil, errs.New(errs.ErrorTypeAuth, "Instagram returned an HTML page instead of JSON, a session cookie is probably required")
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errs.NewParseError("malformed post JSON", err)
	}

	if obj, ok := doc.(map[string]interface{}); ok {
		// a type mismatch only rules out the known envelopes
		var resp PostResponse
		if err := json.Unmarshal(body, &resp); err == nil {
			if item, ok := fromEnvelope(&resp); ok {
				return item, nil
			}
			if resp.RequireLogin {
				return nil, errs.New(errs.ErrorTypeAuth, "Instagram requires login to view this post")
			}
		}
		if item, ok := fromBareObject(obj); ok {
			return item, nil
		}
	}

	if item, ok := scan(doc, 0); ok {
		return item, nil
	}
	return nil, ErrNoMediaItem
}

// LoadPostFile parses a post response saved to disk
func LoadPostFile(path string) (*media.Item, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePost(body)
}

func fromEnvelope(resp *PostResponse) (*media.Item, bool) {
	switch {
	case resp.GraphQL != nil && resp.GraphQL.ShortcodeMedia != nil:
		return resp.GraphQL.ShortcodeMedia.ToItem(), true
	case resp.Data != nil && resp.Data.XDTShortcodeMedia != nil:
		return resp.Data.XDTShortcodeMedia.ToItem(), true
	case resp.Data != nil && resp.Data.ShortcodeMedia != nil:
		return resp.Data.ShortcodeMedia.ToItem(), true
	case len(resp.Items) > 0:
		return resp.Items[0].ToItem(), true
	}
	return nil, false
}

func fromBareObject(obj map[string]interface{}) (*media.Item, bool) {
	if str(obj, "shortcode") != "" && hasAny(obj, "__typename", "display_url", "display_resources", "is_video") {
		return decodeAs[ShortcodeMedia](obj)
	}
	if str(obj, "code") != "" && hasAny(obj, "media_type", "image_versions2", "carousel_media") {
		return decodeAs[V1Item](obj)
	}
	return nil, false
}

// scan walks doc depth-first looking for a post-shaped object. Object keys
// are visited in sorted order so the first match is stable.
func scan(node interface{}, depth int) (*media.Item, bool) {
	if depth > maxScanDepth {
		return nil, false
	}

	switch v := node.(type) {
	case map[string]interface{}:
		if str(v, "shortcode") != "" && nestedUsername(v, "owner") {
			return decodeAs[ShortcodeMedia](v)
		}
		if str(v, "code") != "" && nestedUsername(v, "user") {
			return decodeAs[V1Item](v)
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if item, ok := scan(v[k], depth+1); ok {
				return item, true
			}
		}
	case []interface{}:
		for _, child := range v {
			if item, ok := scan(child, depth+1); ok {
				return item, true
			}
		}
	}
	return nil, false
}

type itemSource interface {
	ShortcodeMedia | V1Item
}

func decodeAs[T itemSource](obj map[string]interface{}) (*media.Item, bool) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	switch src := any(&v).(type) {
	case *ShortcodeMedia:
		return src.ToItem(), true
	case *V1Item:
		return src.ToItem(), true
	}
	return nil, false
}

func str(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}

func hasAny(obj map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func nestedUsername(obj map[string]interface{}, key string) bool {
	inner, ok := obj[key].(map[string]interface{})
	return ok && str(inner, "username") != ""
}

// ToItem converts a GraphQL node and its sidecar children
func (m *ShortcodeMedia) ToItem() *media.Item {
	item := &media.Item{
		ID:        m.ID,
		Shortcode: m.Shortcode,
		IsVideo:   m.IsVideo,
		VideoURL:  m.VideoURL,
		Owner: media.Owner{
			ID:       m.Owner.ID,
			Username: m.Owner.Username,
			FullName: m.Owner.FullName,
		},
		TakenAt: unixTime(m.TakenAtTimestamp),
	}
	if m.DashInfo != nil {
		item.DashManifest = m.DashInfo.VideoDashManifest
	}
	if edges := m.EdgeMediaToCaption.Edges; len(edges) > 0 {
		item.Caption = edges[0].Node.Text
	}

	for _, r := range m.DisplayResources {
		item.DisplayResources = append(item.DisplayResources, media.Resource{
			URL:    r.Src,
			Width:  r.ConfigWidth,
			Height: r.ConfigHeight,
		})
	}
	if len(item.DisplayResources) == 0 && m.DisplayURL != "" {
		item.DisplayResources = []media.Resource{{
			URL:    m.DisplayURL,
			Width:  m.Dimensions.Width,
			Height: m.Dimensions.Height,
		}}
	}

	if m.EdgeSidecarToChildren != nil {
		for _, edge := range m.EdgeSidecarToChildren.Edges {
			item.Children = append(item.Children, *edge.Node.ToItem())
		}
	}
	return item
}

// ToItem converts a v1 item and its carousel children
func (v *V1Item) ToItem() *media.Item {
	id := v.ID
	if id == "" {
		id = v.PK.String()
	}
	item := &media.Item{
		ID:           id,
		Shortcode:    v.Code,
		IsVideo:      v.MediaType == V1MediaVideo || len(v.VideoVersions) > 0,
		DashManifest: v.VideoDashManifest,
		Owner: media.Owner{
			ID:       v.User.PK.String(),
			Username: v.User.Username,
			FullName: v.User.FullName,
		},
		TakenAt: unixTime(v.TakenAt),
	}
	if v.Caption != nil {
		item.Caption = v.Caption.Text
	}

	if len(v.VideoVersions) > 0 {
		best := v.VideoVersions[0]
		for _, c := range v.VideoVersions[1:] {
			if c.Width > best.Width {
				best = c
			}
		}
		item.VideoURL = best.URL
	}
	if v.ImageVersions2 != nil {
		for _, c := range v.ImageVersions2.Candidates {
			item.DisplayResources = append(item.DisplayResources, media.Resource{
				URL:    c.URL,
				Width:  c.Width,
				Height: c.Height,
			})
		}
	}

	for i := range v.CarouselMedia {
		item.Children = append(item.Children, *v.CarouselMedia[i].ToItem())
	}
	return item
}

func unixTime(ts int64) time.Time {
	if ts <= 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

package media

import "time"

// Kind classifies an Item for resolution
type Kind int

const (
	KindEmpty Kind = iota
	KindImage
	KindVideo
	KindCarousel
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindCarousel:
		return "carousel"
	default:
		return "empty"
	}
}

// Resource is one rendition of an image
type Resource struct {
	URL    string
	Width  int
	Height int
}

// Owner identifies the account that posted an item
type Owner struct {
	ID       string
	Username string
	FullName string
}

// Item is one node of a post: a leaf image or video, or a carousel of children.
// Only the root normally carries Owner, Caption and TakenAt.
type Item struct {
	ID               string
	Shortcode        string
	IsVideo          bool
	DashManifest     string
	VideoURL         string
	DisplayResources []Resource
	Owner            Owner
	Caption          string
	TakenAt          time.Time
	Children         []Item
}

// Kind reports how the resolver treats the item
func (it *Item) Kind() Kind {
	switch {
	case len(it.Children) > 0:
		return KindCarousel
	case it.IsVideo:
		return KindVideo
	case len(it.DisplayResources) > 0:
		return KindImage
	default:
		return KindEmpty
	}
}

// BestResource returns the widest display resource. The first one wins ties.
func (it *Item) BestResource() (Resource, bool) {
	if len(it.DisplayResources) == 0 {
		return Resource{}, false
	}
	best := it.DisplayResources[0]
	for _, r := range it.DisplayResources[1:] {
		if r.Width > best.Width {
			best = r
		}
	}
	return best, true
}

// LeafCount returns the number of non-carousel nodes under it, itself included when it is a leaf
func (it *Item) LeafCount() int {
	if len(it.Children) == 0 {
		return 1
	}
	n := 0
	for i := range it.Children {
		n += it.Children[i].LeafCount()
	}
	return n
}

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MockInstagramServer serves post JSON under /p/<shortcode>/ and media files
// under /cdn/, honouring Range requests the way the Instagram CDN does
type MockInstagramServer struct {
	server         *httptest.Server
	mu             sync.RWMutex
	posts          map[string]string
	files          map[string][]byte
	errorResponses map[string]int
	ranges         map[string][]string
	headers        map[string]http.Header
	postRequests   int32
	cdnRequests    int32
}

// NewMockInstagramServer creates and starts a mock server
func NewMockInstagramServer() *MockInstagramServer {
	m := &MockInstagramServer{
		posts:          make(map[string]string),
		files:          make(map[string][]byte),
		errorResponses: make(map[string]int),
		ranges:         make(map[string][]string),
		headers:        make(map[string]http.Header),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/p/", m.handlePost)
	mux.HandleFunc("/cdn/", m.handleCDN)

	m.server = httptest.NewServer(mux)
	return m
}

func (m *MockInstagramServer) handlePost(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.postRequests, 1)

	shortcode := strings.Trim(strings.TrimPrefix(r.URL.Path, "/p/"), "/")

	m.mu.Lock()
	m.headers[shortcode] = r.Header.Clone()
	m.mu.Unlock()

	if code := m.getErrorResponse(r.URL.Path); code > 0 {
		m.sendError(w, code)
		return
	}

	m.mu.RLock()
	body, ok := m.posts[shortcode]
	m.mu.RUnlock()
	if !ok {
		m.sendError(w, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (m *MockInstagramServer) handleCDN(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.cdnRequests, 1)

	m.mu.Lock()
	m.ranges[r.URL.Path] = append(m.ranges[r.URL.Path], r.Header.Get("Range"))
	m.mu.Unlock()

	if code := m.getErrorResponse(r.URL.Path); code > 0 {
		w.WriteHeader(code)
		return
	}

	m.mu.RLock()
	data, ok := m.files[r.URL.Path]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, r.URL.Path, time.Time{}, bytes.NewReader(data))
}

func (m *MockInstagramServer) sendError(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": http.StatusText(code),
		"status":  "fail",
	})
}

func (m *MockInstagramServer) getErrorResponse(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errorResponses[path]
}

// AddPost registers the JSON body returned for shortcode
func (m *MockInstagramServer) AddPost(shortcode, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[shortcode] = body
}

// AddFile registers a CDN file of size deterministic bytes and returns them
func (m *MockInstagramServer) AddFile(name string, size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte((i*31 + len(name)) % 256)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files["/cdn/"+name] = data
	return data
}

// SetErrorResponse makes every request for path answer with code
func (m *MockInstagramServer) SetErrorResponse(path string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[path] = code
}

// GetURL returns the server root
func (m *MockInstagramServer) GetURL() string {
	return m.server.URL
}

// CDNURL returns the absolute URL of a registered CDN file
func (m *MockInstagramServer) CDNURL(name string) string {
	return fmt.Sprintf("%s/cdn/%s", m.server.URL, name)
}

// RangesFor returns the Range headers received for a CDN file, in arrival order
func (m *MockInstagramServer) RangesFor(name string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.ranges["/cdn/"+name]...)
}

// PostHeaders returns the headers of the last request for shortcode
func (m *MockInstagramServer) PostHeaders(shortcode string) http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.headers[shortcode]
}

// PostRequests returns how many post lookups the server answered
func (m *MockInstagramServer) PostRequests() int {
	return int(atomic.LoadInt32(&m.postRequests))
}

// CDNRequests returns how many media requests the server answered
func (m *MockInstagramServer) CDNRequests() int {
	return int(atomic.LoadInt32(&m.cdnRequests))
}

// Close shuts down the server
func (m *MockInstagramServer) Close() {
	m.server.Close()
}

// Manifest builds a two-track DASH manifest whose representations point at
// videoURL and audioURL. An empty audioURL leaves the audio track out.
func Manifest(videoURL string, videoSize int, audioURL string, audioSize int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static">
 <Period>
`)
	fmt.Fprintf(&b, `  <AdaptationSet contentType="video" mimeType="video/mp4">
   <Representation id="v-low" bandwidth="150000" codecs="avc1.4d401e" FBContentLength="%[2]d">
    <BaseURL>%[1]s</BaseURL>
    <SegmentBase><Initialization range="0-99"/></SegmentBase>
   </Representation>
   <Representation id="v-high" bandwidth="900000" codecs="avc1.4d401f" FBContentLength="%[2]d">
    <BaseURL>%[1]s</BaseURL>
    <SegmentBase><Initialization range="0-99"/></SegmentBase>
   </Representation>
  </AdaptationSet>
`, videoURL, videoSize)
	if audioURL != "" {
		fmt.Fprintf(&b, `  <AdaptationSet contentType="audio" mimeType="audio/mp4">
   <Representation id="a" bandwidth="96000" codecs="mp4a.40.2" FBContentLength="%[2]d">
    <BaseURL>%[1]s</BaseURL>
    <SegmentBase><Initialization range="0-49"/></SegmentBase>
   </Representation>
  </AdaptationSet>
`, audioURL, audioSize)
	}
	b.WriteString(" </Period>\n</MPD>")
	return b.String()
}

// ImageItem is a v1 image item
func ImageItem(imageURL string) map[string]interface{} {
	return map[string]interface{}{
		"media_type": 1,
		"image_versions2": map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"url": imageURL + "?small", "width": 320, "height": 320},
				{"url": imageURL, "width": 1080, "height": 1080},
			},
		},
	}
}

// VideoItem is a v1 video item with an inline manifest and a direct fallback URL
func VideoItem(manifest, directURL string) map[string]interface{} {
	item := map[string]interface{}{
		"media_type":          2,
		"video_dash_manifest": manifest,
		"image_versions2": map[string]interface{}{
			"candidates": []map[string]interface{}{},
		},
	}
	if directURL != "" {
		item["video_versions"] = []map[string]interface{}{
			{"url": directURL, "width": 720, "height": 1280},
		}
	}
	return item
}

// CarouselItem wraps children in a v1 carousel
func CarouselItem(children ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"media_type":     8,
		"carousel_media": children,
	}
}

// PostJSON wraps a v1 item into the {"items":[...]} envelope served by /p/<shortcode>/
func PostJSON(shortcode, owner string, item map[string]interface{}) string {
	item["code"] = shortcode
	item["pk"] = "3141592653"
	item["taken_at"] = 1700000000
	item["user"] = map[string]interface{}{"pk": 42, "username": owner}
	item["caption"] = map[string]interface{}{"text": "integration post " + shortcode}

	data, err := json.Marshal(map[string]interface{}{
		"items":  []interface{}{item},
		"status": "ok",
	})
	if err != nil {
		panic(err)
	}
	return string(data)
}

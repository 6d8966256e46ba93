package media

import "strings"

// StreamSource is a single playable rendition inside a manifest.
type StreamSource struct {
	URL         string `json:"url"`
	Quality     string `json:"quality"`
	IsSegmented bool   `json:"isM3U8"`
}

// Segmented reports whether the source is an adaptive bitrate playlist,
// either flagged as such or recognizable by its URL.
func (s StreamSource) Segmented() bool {
	return s.IsSegmented || strings.Contains(s.URL, ".m3u8")
}

// Manifest is a resolved stream description: an ordered list of sources plus
// the HTTP headers the stream origin requires.
type Manifest struct {
	Sources []StreamSource    `json:"sources"`
	Headers map[string]string `json:"headers"`
}

// HasSegmented reports whether any source is an adaptive playlist. Direct
// playback is only attempted when this holds.
func (m *Manifest) HasSegmented() bool {
	for _, s := range m.Sources {
		if s.Segmented() {
			return true
		}
	}
	return false
}

// PreferredSource returns the first segmented source, or the first source at
// all when no adaptive playlist is present. The second return is false for an
// empty manifest.
func (m *Manifest) PreferredSource() (StreamSource, bool) {
	for _, s := range m.Sources {
		if s.Segmented() {
			return s, true
		}
	}
	if len(m.Sources) > 0 {
		return m.Sources[0], true
	}
	return StreamSource{}, false
}

package media

// Server is an embeddable relay endpoint exposed by a delivery provider,
// used as the fallback to direct manifest playback.
type Server struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

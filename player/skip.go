package player

import (
	"fmt"

	"github.com/anilust-cli/anilust/aniskip"
	"github.com/anilust-cli/anilust/log"
)

// Skipper handles auto-skipping of openings and endings during direct playback.
type Skipper struct {
	Times *aniskip.SkipTimes
	mpv   *MPV
}

// NewSkipper creates a skipper bound to a running mpv instance.
func NewSkipper(mpv *MPV, times *aniskip.SkipTimes) *Skipper {
	return &Skipper{
		Times: times,
		mpv:   mpv,
	}
}

// Check inspects the playback position and seeks past any skip interval it
// falls into. Returns true when a skip was performed.
func (s *Skipper) Check(pos float64) (bool, error) {
	if s.Times == nil {
		return false, nil
	}

	if s.Times.HasIntro && pos >= s.Times.Opening.Start && pos < s.Times.Opening.End {
		log.Infof("Skipping opening: %v -> %v", pos, s.Times.Opening.End)
		if err := s.mpv.Seek(s.Times.Opening.End); err != nil {
			return false, fmt.Errorf("skip opening seek: %w", err)
		}
		return true, nil
	}

	if s.Times.HasOutro && pos >= s.Times.Ending.Start && pos < s.Times.Ending.End {
		log.Infof("Skipping ending: %v -> %v", pos, s.Times.Ending.End)
		if err := s.mpv.Seek(s.Times.Ending.End); err != nil {
			return false, fmt.Errorf("skip ending seek: %w", err)
		}
		return true, nil
	}

	return false, nil
}

// ApplyChapters sends chapter markers to the player so the skip intervals are
// visible on the timeline.
func (s *Skipper) ApplyChapters() error {
	if s.Times == nil {
		return nil
	}

	chapters := []map[string]any{
		{"title": "Part A", "time": 0.0},
	}

	if s.Times.HasIntro {
		chapters = append(chapters,
			map[string]any{"title": "Opening", "time": s.Times.Opening.Start},
			map[string]any{"title": "Part B", "time": s.Times.Opening.End},
		)
	}

	if s.Times.HasOutro {
		chapters = append(chapters,
			map[string]any{"title": "Ending", "time": s.Times.Ending.Start},
			map[string]any{"title": "Preview / Next", "time": s.Times.Ending.End},
		)
	}

	return s.mpv.SetChapters(chapters)
}

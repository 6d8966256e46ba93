// Package aniskip provides a client for the AniSkip API, which serves
// community-sourced opening and ending skip timestamps.
package aniskip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/anilust-cli/anilust/log"
	"github.com/anilust-cli/anilust/network"
)

var baseURL = "https://api.aniskip.com/v1/skip-times"

// SkipTimes encapsulates the temporal intervals for opening and ending sequences.
type SkipTimes struct {
	Opening  Interval `json:"opening"`
	Ending   Interval `json:"ending"`
	HasIntro bool     `json:"has_intro"`
	HasOutro bool     `json:"has_outro"`
}

// Interval represents a continuous temporal range defined in seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// apiResponse defines the structural mapping for AniSkip API responses.
type apiResponse struct {
	Found   bool `json:"found"`
	Results []struct {
		Interval struct {
			StartTime float64 `json:"start_time"`
			EndTime   float64 `json:"end_time"`
		} `json:"interval"`
		SkipType string `json:"skip_type"`
	} `json:"results"`
}

// GetSkipTimes retrieves the skip intervals for one episode of a MyAnimeList
// entry. Returns nil (not an error) when no skip data is available, so direct
// playback degrades gracefully instead of failing.
func GetSkipTimes(ctx context.Context, malID int, episode int) (*SkipTimes, error) {
	url := fmt.Sprintf("%s/%d/%d?types=op&types=ed", baseURL, malID, episode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		log.Warnf("aniskip request failed: %v", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("aniskip returned status %d", resp.StatusCode)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read aniskip response: %w", err)
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parse aniskip response: %w", err)
	}

	if !data.Found || len(data.Results) == 0 {
		return nil, nil
	}

	times := &SkipTimes{}

	for _, result := range data.Results {
		interval := Interval{
			Start: result.Interval.StartTime,
			End:   result.Interval.EndTime,
		}
		switch result.SkipType {
		case "op":
			times.Opening = interval
			times.HasIntro = true
		case "ed":
			times.Ending = interval
			times.HasOutro = true
		}
	}

	return times, nil
}

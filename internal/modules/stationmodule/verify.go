package stationmodule

import (
	"fmt"
	"net/http"
	"time"

	"github.com/grafov/m3u8"
)

var verifyClient = &http.Client{Timeout: 10 * time.Second}

// verifyPlaylist fetches the chosen URL and checks it parses as an HLS
// playlist, reporting whether it is a master playlist or a media chunk
// list. Verification is diagnostic only; discovery never fails on it.
func verifyPlaylist(streamURL string) (string, error) {
	resp, err := verifyClient.Get(streamURL)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	_, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return "", fmt.Errorf("not a parseable playlist: %w", err)
	}
	switch listType {
	case m3u8.MASTER:
		return "master", nil
	case m3u8.MEDIA:
		return "media", nil
	default:
		return "unknown", nil
	}
}

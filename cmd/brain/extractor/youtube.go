package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/lyzr/secondbrain/common/clients"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParseVideoID extracts the video id from a youtube.com watch, shorts or embed
// URL or a youtu.be short link
func ParseVideoID(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	host := strings.ToLower(u.Hostname())
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch {
	case host == "youtu.be" || host == "www.youtu.be":
		id = segments[0]
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		switch {
		case segments[0] == "watch":
			id = u.Query().Get("v")
		case len(segments) >= 2 && (segments[0] == "shorts" || segments[0] == "embed"):
			id = segments[1]
		}
	}

	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: no youtube video id in %q", ErrInvalidLink, link)
	}
	return id, nil
}

// YouTubeSource reads video title and description from the Data API
type YouTubeSource struct {
	apiURL string
	apiKey string
	client *clients.HTTPClient
}

// NewYouTubeSource creates a YouTube source
func NewYouTubeSource(apiURL, apiKey string, client *clients.HTTPClient) *YouTubeSource {
	return &YouTubeSource{
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
		client: client,
	}
}

type videoListResponse struct {
	Items []struct {
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"snippet"`
	} `json:"items"`
}

// Extract returns "<title>\n<description>"
func (s *YouTubeSource) Extract(ctx context.Context, link, _ string) (string, error) {
	videoID, err := ParseVideoID(link)
	if err != nil {
		return "", err
	}
	if s.apiKey == "" {
		return "", fmt.Errorf("%w: youtube api key", ErrMissingCredential)
	}

	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("id", videoID)
	query.Set("key", s.apiKey)

	resp, err := s.client.DoRequest(ctx, http.MethodGet, s.apiURL+"/videos?"+query.Encode(), nil, nil)
	if err != nil {
		return "", fmt.Errorf("%w: youtube: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: youtube: status %d", ErrFetch, resp.StatusCode)
	}

	var out videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: youtube: decode response: %v", ErrFetch, err)
	}
	if len(out.Items) == 0 {
		return "", fmt.Errorf("%w: youtube video %s", ErrNotFound, videoID)
	}

	snippet := out.Items[0].Snippet
	return snippet.Title + "\n" + snippet.Description, nil
}

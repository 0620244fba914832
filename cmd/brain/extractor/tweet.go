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

var tweetIDPattern = regexp.MustCompile(`^\d+$`)

var tweetHosts = map[string]bool{
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
	"x.com":              true,
	"www.x.com":          true,
}

// ParseTweetID extracts the status id from a twitter.com or x.com link
func ParseTweetID(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if !tweetHosts[strings.ToLower(u.Hostname())] {
		return "", fmt.Errorf("%w: not a tweet link %q", ErrInvalidLink, link)
	}

	// /<user>/status/<id>[/photo/1]
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 3 || segments[1] != "status" || !tweetIDPattern.MatchString(segments[2]) {
		return "", fmt.Errorf("%w: no tweet id in %q", ErrInvalidLink, link)
	}
	return segments[2], nil
}

// TweetSource reads tweet text from the v2 API
type TweetSource struct {
	apiURL      string
	bearerToken string
	client      *clients.HTTPClient
}

// NewTweetSource creates a tweet source
func NewTweetSource(apiURL, bearerToken string, client *clients.HTTPClient) *TweetSource {
	return &TweetSource{
		apiURL:      strings.TrimRight(apiURL, "/"),
		bearerToken: bearerToken,
		client:      client,
	}
}

type tweetResponse struct {
	Data *struct {
		Text string `json:"text"`
	} `json:"data"`
}

// Extract returns the tweet text
func (s *TweetSource) Extract(ctx context.Context, link, _ string) (string, error) {
	tweetID, err := ParseTweetID(link)
	if err != nil {
		return "", err
	}
	if s.bearerToken == "" {
		return "", fmt.Errorf("%w: twitter bearer token", ErrMissingCredential)
	}

	resp, err := s.client.DoRequest(ctx, http.MethodGet, s.apiURL+"/tweets/"+tweetID, nil, map[string]string{
		"Authorization": "Bearer " + s.bearerToken,
	})
	if err != nil {
		return "", fmt.Errorf("%w: twitter: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: twitter: status %d", ErrFetch, resp.StatusCode)
	}

	var out tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: twitter: decode response: %v", ErrFetch, err)
	}
	if out.Data == nil || out.Data.Text == "" {
		return "", fmt.Errorf("%w: tweet %s", ErrNotFound, tweetID)
	}
	return out.Data.Text, nil
}

package extractor

import (
	"time"

	"github.com/lyzr/secondbrain/common/config"
)

func testExtractorConfig() config.ExtractorConfig {
	return config.ExtractorConfig{
		YouTubeAPIURL:     "https://www.googleapis.com/youtube/v3",
		TwitterAPIURL:     "https://api.twitter.com/2",
		FetchTimeout:      time.Second,
		FetchMaxBytes:     1 << 20,
		RequestsPerSecond: 5,
	}
}

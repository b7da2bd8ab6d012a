package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"ytbatch/internal/logging"
)

const LatestReleaseEndpoint = "https://api.github.com/repos/yt-dlp/yt-dlp/releases/latest"

type latestReleaseResponse struct {
	TagName string `json:"tag_name"`
}

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

// ReleaseChecker looks up the newest published yt-dlp release.
type ReleaseChecker struct {
	Endpoint string
	client   *retryablehttp.Client
}

func NewReleaseChecker(log *logging.Logger) *ReleaseChecker {
	if log == nil {
		log = logging.Nop()
	}
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.HTTPClient.Timeout = 5 * time.Second
	c.Logger = &retryLogger{log: log}
	return &ReleaseChecker{Endpoint: LatestReleaseEndpoint, client: c}
}

// Latest returns the tag of the latest release, e.g. "2025.06.30".
func (c *ReleaseChecker) Latest(ctx context.Context) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "ytbatch-doctor")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d fetching latest release", resp.StatusCode)
	}

	var payload latestReleaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode latest release: %w", err)
	}
	return NormalizeVersionTag(payload.TagName), nil
}

// NormalizeVersionTag strips whitespace and a leading "v" so that release
// tags compare equal to "yt-dlp --version" output.
func NormalizeVersionTag(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "v")
	return raw
}

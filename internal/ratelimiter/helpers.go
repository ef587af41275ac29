package ratelimiter

import (
	"net/url"
	"strings"
	"time"
)

func getDelay(interval time.Duration, lastSent time.Time) time.Duration {
	if lastSent.IsZero() {
		return 0
	}

	return max(interval-time.Since(lastSent), 0)
}

func hostOf(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return trimmed
	}

	return strings.ToLower(u.Host)
}

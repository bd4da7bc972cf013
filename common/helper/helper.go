package helper

import (
	"strings"

	"github.com/songquanpeng/hamming-ci/common/random"
)

// GenRequestID returns a new request id.
func GenRequestID() string {
	return random.GetUUID()
}

// ParseCommaSeparated splits a comma separated list, trimming blanks and dropping empty items.
// It returns nil for an empty input.
func ParseCommaSeparated(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// Snippet trims response bodies for logging without exceeding 256 characters.
func Snippet(body []byte) string {
	const maxLen = 256
	cleaned := []rune(strings.ToValidUTF8(strings.TrimSpace(string(body)), "\uFFFD"))
	if len(cleaned) <= maxLen {
		return string(cleaned)
	}
	return string(cleaned[:maxLen]) + "…"
}

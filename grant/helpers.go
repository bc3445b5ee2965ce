package grant

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-webauth/core"
)

func readValue(values map[string]string, key string) string {
	return strings.TrimSpace(values[key])
}

// encodeValues renders callback values as a stable k=v payload for
// invalid-response diagnostics.
func encodeValues(values map[string]string) []byte {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var builder strings.Builder
	for i, key := range keys {
		if i > 0 {
			builder.WriteByte('&')
		}
		builder.WriteString(key)
		builder.WriteByte('=')
		builder.WriteString(values[key])
	}
	return []byte(builder.String())
}

func credentialsFromValues(values map[string]string, now time.Time) *core.Credentials {
	creds := &core.Credentials{
		AccessToken:  readValue(values, "access_token"),
		TokenType:    readValue(values, "token_type"),
		IDToken:      readValue(values, "id_token"),
		RefreshToken: readValue(values, "refresh_token"),
		Scope:        readValue(values, "scope"),
	}
	if seconds := parseExpiresIn(values["expires_in"]); seconds > 0 {
		creds.ExpiresAt = now.Add(time.Duration(seconds) * time.Second)
	}
	return creds
}

func parseExpiresIn(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}

package helpers

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration reads a config duration such as "24h" or "720h". Empty or
// non-positive values fall back to def; unparsable ones are logged first.
func ParseDuration(raw string, def time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Err(err).Str("value", raw).Dur("default", def).Msg("Invalid duration in configuration, using default")
		return def
	}
	if d <= 0 {
		return def
	}
	return d
}

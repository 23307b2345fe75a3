package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"changeflare/common"
	"changeflare/log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Environment keys, compatible with existing deployments.
const (
	EnvPollRate = "CLOUDFLARE_POLL_RATE"
	EnvAPIToken = "CLOUDFLARE_API_KEY"
	EnvZoneID   = "CLOUDFLARE_ZONE_ID"
)

const (
	// DefaultPollInterval applies when neither config nor environment set one.
	DefaultPollInterval = 300 * time.Second

	// MinPollInterval is the floor; shorter intervals are clamped up.
	MinPollInterval = 60 * time.Second
)

// LoadEnv merges a local .env file into the process environment. A missing
// file is not an error; existing environment variables are never overridden.
func LoadEnv(ctx context.Context) {
	err := godotenv.Load()
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		log.S(ctx).Debugw("no .env file found, using process environment only")
	default:
		log.S(ctx).Warnw("failed loading .env file", zap.Error(err))
	}
}

// Resolve fills empty Provider fields from the environment and enforces the
// poll-interval floor. Explicitly set fields are used verbatim and the
// environment is not consulted for them. A missing token or zone id is
// only warned about: startup proceeds and provider calls fail at the
// transport layer instead.
func (p Provider) Resolve(ctx context.Context) Provider {
	out := p

	if out.Type == "" {
		out.Type = "cloudflare"
	}

	if out.PollInterval == 0 {
		if v := os.Getenv(EnvPollRate); v != "" {
			secs, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				log.S(ctx).Warnw("invalid poll rate in environment, ignoring",
					"key", EnvPollRate, "value", v, zap.Error(err))
			} else {
				out.PollInterval = common.Duration(time.Duration(secs) * time.Second)
			}
		}
	}
	if out.PollInterval == 0 {
		out.PollInterval = common.Duration(DefaultPollInterval)
	}
	if time.Duration(out.PollInterval) < MinPollInterval {
		log.S(ctx).Infow("poll interval below floor, clamping",
			"configured", time.Duration(out.PollInterval), "floor", MinPollInterval)
		out.PollInterval = common.Duration(MinPollInterval)
	}
	log.S(ctx).Infow("polling interval set", "interval", time.Duration(out.PollInterval))

	if out.APIToken == "" {
		log.S(ctx).Infow("API token not set, falling back to environment", "key", EnvAPIToken)
		out.APIToken = os.Getenv(EnvAPIToken)
	}
	if out.APIToken == "" {
		log.S(ctx).Warnw("API token not configured, provider calls will fail", "key", EnvAPIToken)
	}

	if out.ZoneID == "" {
		out.ZoneID = os.Getenv(EnvZoneID)
	}
	if out.ZoneID == "" {
		log.S(ctx).Warnw("zone id not configured, provider calls will fail", "key", EnvZoneID)
	}

	return out
}

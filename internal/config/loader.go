package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "SCOUT_"
	envConfigPath = "SCOUT_CONFIG"
	envNesting    = "__"
)

// legacyEnv maps the bare variable names used by the cron scripts to config keys.
var legacyEnv = map[string]string{ //nolint:gochecknoglobals // read-only lookup table
	"FB_TOKEN":           "meta.token",
	"REDDIT_ID":          "reddit.client_id",
	"REDDIT_SECRET":      "reddit.client_secret",
	"SLACK_WEBHOOK":      "notify.webhook_url",
	"EMAIL_FROM":         "notify.email.from",
	"EMAIL_PW":           "notify.email.password",
	"EMAIL_TO":           "notify.email.to",
	"GMAIL_USER":         "alerts.gmail_user",
	"GMAIL_APP_PASSWORD": "alerts.gmail_password",
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) at path, or at SCOUT_CONFIG when path is empty
//  3. legacy bare env vars (FB_TOKEN, REDDIT_ID, ...)
//  4. env (prefix SCOUT_, "__" separates nested keys)
func Load(ctx context.Context, path string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Start with defaults
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Legacy names are matched exactly; everything else is ignored.
	legacyProvider := env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	})
	if err := k.Load(legacyProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: legacy env: %w", ErrLoadConfig, err)
	}

	// SCOUT_REDDIT__CLIENT_ID -> reddit.client_id
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, envNesting, ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

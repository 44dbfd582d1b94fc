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

	"github.com/okian/pwnwatch/internal/domain/model"
)

const (
	envPrefix     = "PWNWATCH_"
	// EnvConfigFile names the variable holding the YAML config path.
	EnvConfigFile = "PWNWATCH_CONFIG"
)

// Keys whose slice values replace the defaults instead of merging into them.
var sliceKeys = []string{"ignore_members", "poll.windows", "ranking.windows"}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PWNWATCH_CONFIG is set
//  3. env (prefix PWNWATCH_, "__" separates nested keys)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// PWNWATCH_PLATFORM__APP_TOKEN -> platform.app_token
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(key, envPrefix)
		if key == "CONFIG" {
			return "", nil
		}
		key = strings.ReplaceAll(strings.ToLower(key), "__", ".")
		if key == "ignore_members" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	for _, key := range sliceKeys {
		if !k.Exists(key) {
			continue
		}
		switch key {
		case "ignore_members":
			cfg.IgnoreMembers = nil
		case "poll.windows":
			cfg.Poll.Windows = nil
		case "ranking.windows":
			cfg.Ranking.Windows = nil
		}
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	cfg.ignored = model.NewIDSet(cfg.IgnoreMembers...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.DatabaseDSN == "":
		return invalid("db_dsn must not be empty")
	case c.Platform.BaseURL == "":
		return invalid("platform.base_url must not be empty")
	case c.Platform.TeamID < 0:
		return invalid("platform.team_id must not be negative")
	case c.Platform.MaxRetries < 0:
		return invalid("platform.max_retries must not be negative")
	case c.Poll.Default <= 0:
		return invalid("poll.default must be positive")
	case c.Ranking.TopN <= 0:
		return invalid("ranking.top_n must be positive")
	case c.DispatchLedgerSize <= 0:
		return invalid("dispatch_ledger_size must be positive")
	}
	for i, w := range c.Poll.Windows {
		if w.Interval <= 0 {
			return invalid("poll.windows[%d].interval must be positive", i)
		}
		if len(w.Days) == 0 {
			return invalid("poll.windows[%d].days must not be empty", i)
		}
	}
	for i, w := range c.Ranking.Windows {
		if w.Hour < 0 || w.Hour > 23 {
			return invalid("ranking.windows[%d].hour out of range: %d", i, w.Hour)
		}
		if len(w.Days) == 0 {
			return invalid("ranking.windows[%d].days must not be empty", i)
		}
	}
	for _, id := range c.IgnoreMembers {
		if id <= 0 {
			return invalid("ignore_members contains non-positive id %d", id)
		}
	}
	return nil
}

// RequirePlatform checks the settings needed to talk to the remote platform.
func (c *Config) RequirePlatform() error {
	if c.Platform.AppToken == "" {
		return fmt.Errorf("%w: platform.app_token is required", ErrInvalidConfig)
	}
	if c.Platform.TeamID == 0 {
		return fmt.Errorf("%w: platform.team_id is required", ErrInvalidConfig)
	}
	return nil
}

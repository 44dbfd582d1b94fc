// Package config defines tracker configuration and its loading from
// defaults, an optional YAML file and the environment.
package config

import (
	"time"

	"github.com/okian/pwnwatch/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DatabaseDSN selects the row store: sqlite://path, file:path, :memory:
	// or postgres://...
	DatabaseDSN string `koanf:"db_dsn"`

	// MaxMembersLimit caps GET /members?limit and GET /deltas?limit.
	MaxMembersLimit int `koanf:"max_members_limit"`

	// DispatchLedgerSize bounds the in-process at-most-once ledger.
	DispatchLedgerSize int `koanf:"dispatch_ledger_size"`

	// IgnoreMembers lists member ids the tracker never touches.
	IgnoreMembers []int64 `koanf:"ignore_members"`

	Platform Platform `koanf:"platform"`
	Webhooks Webhooks `koanf:"webhooks"`
	Poll     Poll     `koanf:"poll"`
	Ranking  Ranking  `koanf:"ranking"`

	ignored model.IDSet
}

// Platform configures the remote challenge platform API.
type Platform struct {
	BaseURL    string        `koanf:"base_url"`
	AppToken   string        `koanf:"app_token"`
	TeamID     int64         `koanf:"team_id"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
	UserAgent  string        `koanf:"user_agent"`
}

// Webhooks configures outbound chat webhooks. Empty URLs disable posting.
type Webhooks struct {
	Team    string        `koanf:"team"`
	Alerts  string        `koanf:"alerts"`
	Timeout time.Duration `koanf:"timeout"`
}

// Poll configures the fast tick cadence.
type Poll struct {
	// Default is the wait used outside every window.
	Default time.Duration `koanf:"default"`
	// Location names the time zone windows are evaluated in.
	Location string       `koanf:"location"`
	Windows  []PollWindow `koanf:"windows"`
}

// PollWindow overrides the wait on the given weekdays between Start and End (HH:MM).
type PollWindow struct {
	Days     []string      `koanf:"days"`
	Start    string        `koanf:"start"`
	End      string        `koanf:"end"`
	Interval time.Duration `koanf:"interval"`
}

// Ranking configures the slow tick.
type Ranking struct {
	Enabled bool            `koanf:"enabled"`
	TopN    int             `koanf:"top_n"`
	Windows []RankingWindow `koanf:"windows"`
}

// RankingWindow fires once on each listed weekday during Hour.
type RankingWindow struct {
	Days []string `koanf:"days"`
	Hour int      `koanf:"hour"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DatabaseDSN:        "sqlite://pwnwatch.db",
		MaxMembersLimit:    100,
		DispatchLedgerSize: 10_000,
		Platform: Platform{
			BaseURL:    "https://www.hackthebox.com",
			Timeout:    15 * time.Second,
			MaxRetries: 3,
			UserAgent:  "pwnwatch/1.0",
		},
		Webhooks: Webhooks{
			Timeout: 10 * time.Second,
		},
		Poll: Poll{
			Default:  30 * time.Minute,
			Location: "UTC",
			Windows: []PollWindow{
				{Days: []string{"sat"}, Start: "19:00", End: "24:00", Interval: time.Minute},
				{Days: []string{"sun"}, Start: "00:00", End: "08:00", Interval: time.Minute},
			},
		},
		Ranking: Ranking{
			Enabled: true,
			TopN:    25,
			Windows: []RankingWindow{
				{Days: []string{"sat"}, Hour: 1},
			},
		},
		ignored: model.NewIDSet(),
	}
}

// Ignored returns the ignore list as a set.
func (c *Config) Ignored() model.IDSet {
	if c.ignored == nil {
		c.ignored = model.NewIDSet(c.IgnoreMembers...)
	}
	return c.ignored
}

package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/pwnwatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"PWNWATCH_CONFIG",
	"PWNWATCH_ADDR",
	"PWNWATCH_LOG_LEVEL",
	"PWNWATCH_DB_DSN",
	"PWNWATCH_IGNORE_MEMBERS",
	"PWNWATCH_PLATFORM__APP_TOKEN",
	"PWNWATCH_PLATFORM__TEAM_ID",
	"PWNWATCH_PLATFORM__TIMEOUT",
	"PWNWATCH_POLL__DEFAULT",
	"PWNWATCH_RANKING__TOP_N",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pwnwatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New()

		convey.Convey("Then it carries the weekly cadence defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Poll.Default, convey.ShouldEqual, 30*time.Minute)
			convey.So(cfg.Poll.Windows, convey.ShouldHaveLength, 2)
			convey.So(cfg.Poll.Windows[0].Interval, convey.ShouldEqual, time.Minute)
			convey.So(cfg.Ranking.TopN, convey.ShouldEqual, 25)
			convey.So(cfg.Ranking.Windows[0].Hour, convey.ShouldEqual, 1)
			convey.So(cfg.Platform.BaseURL, convey.ShouldEqual, "https://www.hackthebox.com")
			convey.So(cfg.Ignored().Len(), convey.ShouldEqual, 0)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then platform credentials are required separately", func() {
			convey.So(errors.Is(cfg.RequirePlatform(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			cfg.Platform.AppToken = "tok"
			cfg.Platform.TeamID = 42
			convey.So(cfg.RequirePlatform(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DatabaseDSN, convey.ShouldEqual, "sqlite://pwnwatch.db")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("PWNWATCH_ADDR", ":8080")
			_ = os.Setenv("PWNWATCH_IGNORE_MEMBERS", "11,42")
			_ = os.Setenv("PWNWATCH_PLATFORM__APP_TOKEN", "secret")
			_ = os.Setenv("PWNWATCH_PLATFORM__TEAM_ID", "4242")
			_ = os.Setenv("PWNWATCH_PLATFORM__TIMEOUT", "3s")
			_ = os.Setenv("PWNWATCH_POLL__DEFAULT", "5m")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env overrides nested and flat keys", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Platform.AppToken, convey.ShouldEqual, "secret")
				convey.So(cfg.Platform.TeamID, convey.ShouldEqual, 4242)
				convey.So(cfg.Platform.Timeout, convey.ShouldEqual, 3*time.Second)
				convey.So(cfg.Poll.Default, convey.ShouldEqual, 5*time.Minute)
				convey.So(cfg.IgnoreMembers, convey.ShouldResemble, []int64{11, 42})
				convey.So(cfg.Ignored().Has(42), convey.ShouldBeTrue)
				convey.So(cfg.Ignored().Has(7), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading a YAML file", func() {
			path := writeConfigFile(t, `
addr: ":9090"
db_dsn: ":memory:"
ignore_members: [7]
platform:
  team_id: 99
  max_retries: 1
poll:
  default: 10m
  windows:
    - days: [fri]
      start: "20:00"
      end: "22:00"
      interval: 2m
ranking:
  top_n: 10
`)
			_ = os.Setenv("PWNWATCH_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values replace defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DatabaseDSN, convey.ShouldEqual, ":memory:")
				convey.So(cfg.Platform.TeamID, convey.ShouldEqual, 99)
				convey.So(cfg.Platform.MaxRetries, convey.ShouldEqual, 1)
				convey.So(cfg.Poll.Default, convey.ShouldEqual, 10*time.Minute)
				convey.So(cfg.Poll.Windows, convey.ShouldHaveLength, 1)
				convey.So(cfg.Poll.Windows[0].Days, convey.ShouldResemble, []string{"fri"})
				convey.So(cfg.Poll.Windows[0].Interval, convey.ShouldEqual, 2*time.Minute)
				convey.So(cfg.Ranking.TopN, convey.ShouldEqual, 10)
				convey.So(cfg.Ranking.Windows, convey.ShouldHaveLength, 1)
				convey.So(cfg.Ignored().Sorted(), convey.ShouldResemble, []int64{7})
			})

			convey.Convey("And env still wins over the file", func() {
				_ = os.Setenv("PWNWATCH_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("PWNWATCH_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then ErrLoadConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When values fail validation", func() {
			_ = os.Setenv("PWNWATCH_RANKING__TOP_N", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then ErrInvalidConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given an otherwise valid config", t, func() {
		cfg := config.New()

		convey.Convey("When a ranking hour is out of range", func() {
			cfg.Ranking.Windows[0].Hour = 24
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a poll window has no interval", func() {
			cfg.Poll.Windows[1].Interval = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When an ignored id is not positive", func() {
			cfg.IgnoreMembers = []int64{0}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

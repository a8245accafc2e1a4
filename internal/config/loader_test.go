package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	config "github.com/moltyroyale/agent/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

// clearConfigEnvVars removes every ROYALE_ variable tests may set.
func clearConfigEnvVars() {
	for _, key := range []string{
		"ROYALE_CONFIG",
		"ROYALE_API_BASE",
		"ROYALE_AGENT_NAME",
		"ROYALE_TICK_INTERVAL_MS",
		"ROYALE_WIN_PROB_ENGAGE",
		"ROYALE_HEALTH_CRITICAL",
		"ROYALE_HEALTH_NORMAL",
	} {
		_ = os.Unsetenv(key)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := config.New(context.Background())

		Convey("Then the engine thresholds match the tuned values", func() {
			So(cfg.WinProbEngage, ShouldAlmostEqual, 0.60)
			So(cfg.EscapeProbMax, ShouldAlmostEqual, 0.40)
			So(cfg.HealthCritical, ShouldAlmostEqual, 35)
			So(cfg.HealthNormal, ShouldAlmostEqual, 60)
			So(cfg.WeaponUpgradeMargin, ShouldAlmostEqual, 0.15)
			So(cfg.RegionFloor, ShouldAlmostEqual, 0.5)
		})

		Convey("Then the loop timing has sane defaults", func() {
			So(cfg.TickIntervalMS, ShouldEqual, 1000)
			So(cfg.TickDeadlineMS, ShouldEqual, 5000)
			So(cfg.OpsAddr, ShouldEqual, ":9090")
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a config loader", t, func() {
		ctx := context.Background()

		Convey("When no overrides are present", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.TickIntervalMS, ShouldEqual, 1000)
			So(cfg.AgentName, ShouldEqual, "ShadowStrike")
		})

		Convey("When env vars override defaults", func() {
			_ = os.Setenv("ROYALE_TICK_INTERVAL_MS", "250")
			_ = os.Setenv("ROYALE_AGENT_NAME", "TestBot")
			_ = os.Setenv("ROYALE_WIN_PROB_ENGAGE", "0.75")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.TickIntervalMS, ShouldEqual, 250)
			So(cfg.AgentName, ShouldEqual, "TestBot")
			So(cfg.WinProbEngage, ShouldAlmostEqual, 0.75)
		})

		Convey("When a YAML file is layered under env", func() {
			path := writeTempConfig(t, "tick_interval_ms: 500\nlog_level: debug\n")
			_ = os.Setenv("ROYALE_CONFIG", path)
			_ = os.Setenv("ROYALE_TICK_INTERVAL_MS", "750")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)

			Convey("Then the file applies and env wins on conflict", func() {
				So(cfg.LogLevel, ShouldEqual, "debug")
				So(cfg.TickIntervalMS, ShouldEqual, 750)
			})
		})

		Convey("When the config file does not exist", func() {
			_ = os.Setenv("ROYALE_CONFIG", "/nonexistent/config.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})

		Convey("When validation fails", func() {
			Convey("And the API base is blanked out", func() {
				path := writeTempConfig(t, `api_base: ""`+"\n")
				_ = os.Setenv("ROYALE_CONFIG", path)
				defer clearConfigEnvVars()

				_, err := config.Load(ctx)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})

			Convey("And the tick interval is non-positive", func() {
				_ = os.Setenv("ROYALE_TICK_INTERVAL_MS", "0")
				defer clearConfigEnvVars()

				_, err := config.Load(ctx)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})

			Convey("And the engage probability is out of range", func() {
				_ = os.Setenv("ROYALE_WIN_PROB_ENGAGE", "1.5")
				defer clearConfigEnvVars()

				_, err := config.Load(ctx)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})

			Convey("And critical exceeds normal health", func() {
				_ = os.Setenv("ROYALE_HEALTH_CRITICAL", "80")
				_ = os.Setenv("ROYALE_HEALTH_NORMAL", "60")
				defer clearConfigEnvVars()

				_, err := config.Load(ctx)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}

package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/klv/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.CohortCutoffYear, convey.ShouldEqual, 2005)
				convey.So(cfg.PointBase, convey.ShouldEqual, 500)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("KLV_ADDR", ":8080")
			_ = os.Setenv("KLV_QUEUE_SIZE", "500")
			_ = os.Setenv("KLV_COHORT_CUTOFF_YEAR", "2006")
			_ = os.Setenv("KLV_POINT_BASE", "1000")
			_ = os.Setenv("KLV_REDIS_ADDR", "localhost:6379")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.CohortCutoffYear, convey.ShouldEqual, 2006)
				convey.So(cfg.PointBase, convey.ShouldEqual, 1000)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
store_backend: dynamodb
dynamodb_table: athletes
worker_count: 3
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("KLV_CONFIG", tmpFile)
			_ = os.Setenv("KLV_WORKER_COUNT", "7")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.BackendDynamoDB)
				convey.So(cfg.DynamoDBTable, convey.ShouldEqual, "athletes")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 7)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("KLV_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("KLV_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("KLV_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("KLV_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func createTempConfigFile(content string) string {
	f, err := os.CreateTemp("", "klv-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	return f.Name()
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"KLV_CONFIG", "KLV_ADDR", "KLV_QUEUE_SIZE", "KLV_WORKER_COUNT",
		"KLV_COHORT_CUTOFF_YEAR", "KLV_POINT_BASE", "KLV_REDIS_ADDR",
	} {
		_ = os.Unsetenv(k)
	}
}

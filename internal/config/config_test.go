package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/storyloom/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.LLMProvider, convey.ShouldEqual, config.ProviderGateway)
			convey.So(cfg.QualityThreshold, convey.ShouldEqual, 0.75)
			convey.So(cfg.MaxRevisionCycles, convey.ShouldEqual, 2)
			convey.So(cfg.MaxTokens, convey.ShouldEqual, 0)
			convey.So(cfg.ImageWidth, convey.ShouldEqual, 1024)
			convey.So(cfg.ImageHeight, convey.ShouldEqual, 576)
			convey.So(cfg.ArtifactBackend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.RunTimeout().Minutes(), convey.ShouldEqual, 5)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsRefresh().Seconds(), convey.ShouldEqual, 5)
		})

		convey.Convey("And the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with several bad values", t, func() {
		cfg := config.New()
		cfg.QualityThreshold = 1.5
		cfg.LLMProvider = "carrier-pigeon"
		cfg.ArtifactBackend = config.BackendS3
		cfg.S3Endpoint = ""
		cfg.MetricsRefreshMS = 0

		err := cfg.Validate()

		convey.Convey("Then every problem is reported under ErrInvalidConfig", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "quality_threshold")
			convey.So(err.Error(), convey.ShouldContainSubstring, "llm_provider")
			convey.So(err.Error(), convey.ShouldContainSubstring, "s3_endpoint")
			convey.So(err.Error(), convey.ShouldContainSubstring, "metrics_refresh_ms")
		})
	})

	convey.Convey("Given the openai provider without a base URL", t, func() {
		cfg := config.New()
		cfg.LLMProvider = config.ProviderOpenAI
		cfg.LLMBaseURL = ""

		convey.Convey("Then it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

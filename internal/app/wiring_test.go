package service_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/storyloom/internal/app"
	"github.com/okian/storyloom/internal/config"
	"github.com/okian/storyloom/pkg/logger"
)

func TestWiringFromConfig(t *testing.T) {
	Convey("Given a default configuration", t, func() {
		cfg := config.New()
		log := logger.Get()

		Convey("When the provider is switched", func() {
			Convey("Then each backend is selectable", func() {
				chat, err := service.ChatFromConfig(cfg, log)
				So(err, ShouldBeNil)
				So(chat.Name(), ShouldEqual, "gateway")
				So(service.ImagesFromConfig(cfg, log), ShouldNotBeNil)

				cfg.LLMProvider = config.ProviderOpenAI
				chat, err = service.ChatFromConfig(cfg, log)
				So(err, ShouldBeNil)
				So(chat.Name(), ShouldEqual, "openai")
				So(service.ImagesFromConfig(cfg, log), ShouldBeNil)
			})

			Convey("And an unknown one is rejected", func() {
				cfg.LLMProvider = "carrier-pigeon"
				_, err := service.ChatFromConfig(cfg, log)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)

				_, err = service.FromConfig(cfg, log)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When pipeline defaults are derived", func() {
			cfg.QualityThreshold = 0.6
			cfg.MaxRevisionCycles = 4
			o := service.DefaultsFromConfig(cfg)

			Convey("Then configured values replace the built in ones", func() {
				So(o.QualityThreshold, ShouldEqual, 0.6)
				So(o.MaxRevisionCycles, ShouldEqual, 4)
				So(o.StrictPhonics, ShouldBeTrue)
			})

			Convey("And the token budget stays per pass unless configured", func() {
				So(o.MaxTokens, ShouldEqual, 0)

				cfg.MaxTokens = 2000
				So(service.DefaultsFromConfig(cfg).MaxTokens, ShouldEqual, 2000)
			})
		})

		Convey("When the artifact backend is unknown", func() {
			cfg.ArtifactBackend = "floppy"
			_, err := service.FromConfig(cfg, log)
			So(err, ShouldNotBeNil)
		})

		Convey("When everything is valid", func() {
			svc, err := service.FromConfig(cfg, log)
			So(err, ShouldBeNil)
			So(svc.Pipeline().Defaults().QualityThreshold, ShouldEqual, cfg.QualityThreshold)
		})
	})
}

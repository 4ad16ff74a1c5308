package storyctl

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/storyloom/internal/adapters/llm"
	service "github.com/okian/storyloom/internal/app"
	"github.com/okian/storyloom/internal/domain/analytics"
	"github.com/okian/storyloom/internal/domain/companion"
)

func (c *CLI) generateCommand() *cobra.Command {
	var (
		flags  storyFlags
		random bool
		quiet  bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate, evaluate and revise a story locally",
		Long: `Runs the full pipeline in this process against the configured model
provider and prints the finished story with its report.`,
		Example: `  storyctl generate -t friendship -g adventure -k "sh digraph" -l 6 --grade 2
  storyctl generate --random --grade K -o markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := flags.resolve()
			if err != nil {
				return err
			}
			chat, err := c.chatter()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			status := printer{c.errOut}

			if random {
				g := in.GradeLevel
				if !cmd.Flags().Changed("grade") {
					g = ""
				}
				idea, err := companion.New(chat).RandomInput(ctx, g)
				if err != nil {
					return err
				}
				in = idea
				status.Info("Random story: %s / %s / %s / %d sentences / %s",
					in.Theme, in.Genre, in.PhonicSkill, in.Length, in.GradeLevel.Display())
			}

			var progress io.Writer = c.errOut
			if quiet {
				progress = io.Discard
			}
			rec := analytics.NewRecorder()
			opts := append(service.Overrides(flags.overrides(cmd)),
				service.WithAnalytics(analytics.Multi(analytics.NewConsole(progress), rec, analytics.NewTelemetry(c.log))))

			pipeline := service.NewPipeline(chat, service.WithDefaults(service.DefaultsFromConfig(c.cfg)))
			res, err := pipeline.Run(ctx, in, opts...)
			if err != nil {
				var ve *service.ValidationError
				if errors.As(err, &ve) {
					for _, problem := range ve.Problems {
						status.Warning("%s", problem)
					}
				}
				return err
			}
			if !quiet {
				analytics.PrintSummary(progress, rec.Summary())
			}
			return writeResult(c.out, flags.output, res)
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVarP(&random, "random", "r", false, "Let the model pick theme, genre, skill and length")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide pass progress and the summary")
	return cmd
}

// chatter returns the injected client or builds one from configuration.
func (c *CLI) chatter() (llm.Chatter, error) {
	if c.chat != nil {
		return c.chat, nil
	}
	chat, err := service.ChatFromConfig(c.cfg, c.log)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

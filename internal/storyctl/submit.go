package storyctl

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/okian/storyloom/internal/domain/analytics"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/types"
	"github.com/okian/storyloom/pkg/logger"
)

const pollInterval = 500 * time.Millisecond

func (c *CLI) submitCommand() *cobra.Command {
	var (
		flags  storyFlags
		key    string
		detach bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue a story on a storyloom server and follow it",
		Long: `Posts the story to the server, follows its progress over the
websocket stream (polling when the stream is unavailable) and prints the
finished story.`,
		Example: `  storyctl submit -t pets -g mystery -k "ch digraph" -l 8 --grade 3 --key lesson-42`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := flags.resolve()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			status := printer{c.errOut}

			header := http.Header{}
			if key != "" {
				header.Set("Idempotency-Key", key)
			}
			var sub types.SubmitResponse
			req := types.SubmitRequest{Input: in, Options: flags.overrides(cmd)}
			if err := c.do(ctx, http.MethodPost, "/stories", req, header, &sub); err != nil {
				return err
			}
			if sub.Duplicate {
				status.Info("Job %s already exists for key %q", sub.ID, key)
			} else {
				status.Success("Queued job %s", sub.ID)
			}
			if detach {
				fmt.Fprintln(c.out, sub.ID)
				return nil
			}

			final, reason, err := c.follow(ctx, sub.ID)
			if err != nil {
				return err
			}
			if final != model.JobSucceeded {
				return fmt.Errorf("%w: job %s %s: %s", ErrJobFailed, sub.ID, final, reason)
			}

			var job model.Job
			if err := c.do(ctx, http.MethodGet, "/stories/"+sub.ID, nil, nil, &job); err != nil {
				return err
			}
			return writeResult(c.out, flags.output, job.Result)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key; resubmitting with the same key returns the same job")
	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "Print the job ID and return without waiting")
	return cmd
}

// follow waits for the job to finish and returns its final status and error.
func (c *CLI) follow(ctx context.Context, id string) (model.JobStatus, string, error) {
	url := wsURL(c.server) + "/stories/" + id + "/stream"
	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		c.log.Warn(ctx, "stream unavailable, polling", logger.String("jobID", id), logger.Error(err))
		return c.poll(ctx, id)
	}
	defer func() { _ = conn.Close() }()

	console := analytics.NewConsole(c.errOut)
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var msg types.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return "", "", ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				// Closed without a terminal frame; ask the server directly.
				return c.poll(ctx, id)
			}
			return "", "", fmt.Errorf("%w: stream: %w", ErrServer, err)
		}
		switch msg.Type {
		case types.StreamEvent:
			if msg.Event != nil {
				console.OnEvent(ctx, *msg.Event)
			}
		case types.StreamStatus:
			if msg.Status.Terminal() {
				return msg.Status, msg.Error, nil
			}
			printer{c.errOut}.Info("Job %s is %s", id, msg.Status)
		}
	}
}

// poll asks for the job until it reaches a terminal status.
func (c *CLI) poll(ctx context.Context, id string) (model.JobStatus, string, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		var job model.Job
		if err := c.do(ctx, http.MethodGet, "/stories/"+id, nil, nil, &job); err != nil {
			return "", "", err
		}
		if job.Status.Terminal() {
			return job.Status, job.Error, nil
		}
		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}

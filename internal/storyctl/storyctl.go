// Package storyctl is the command line front end: it runs the pipeline in
// process, talks to a running server, and prints the grade and phonics
// reference tables.
package storyctl

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/internal/config"
	"github.com/okian/storyloom/pkg/logger"
)

const defaultHTTPTimeout = 30 * time.Second

// CLI holds the shared state of every storyctl command.
type CLI struct {
	out    io.Writer
	errOut io.Writer

	chat       llm.Chatter
	client     *http.Client
	dialer     *websocket.Dialer
	loadConfig func(context.Context) (*config.Config, error)

	cfg     *config.Config
	log     logger.Logger
	server  string
	verbose bool
}

// Option configures a CLI.
type Option func(*CLI)

// WithOutput redirects normal and diagnostic output.
func WithOutput(out, errOut io.Writer) Option {
	return func(c *CLI) {
		if out != nil {
			c.out = out
		}
		if errOut != nil {
			c.errOut = errOut
		}
	}
}

// WithChat replaces the configured model client.
func WithChat(chat llm.Chatter) Option {
	return func(c *CLI) { c.chat = chat }
}

// WithHTTPClient sets the client used against the server.
func WithHTTPClient(client *http.Client) Option {
	return func(c *CLI) {
		if client != nil {
			c.client = client
		}
	}
}

// WithConfigLoader replaces config.Load.
func WithConfigLoader(fn func(context.Context) (*config.Config, error)) Option {
	return func(c *CLI) {
		if fn != nil {
			c.loadConfig = fn
		}
	}
}

// New builds a CLI writing to stdout and stderr.
func New(opts ...Option) *CLI {
	c := &CLI{
		out:        os.Stdout,
		errOut:     os.Stderr,
		client:     &http.Client{Timeout: defaultHTTPTimeout},
		dialer:     websocket.DefaultDialer,
		loadConfig: config.Load,
		log:        logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Command returns the root command with every subcommand attached.
func (c *CLI) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "storyctl",
		Short: "storyloom - decodable phonics stories from the command line",
		Long: `storyctl generates, evaluates and revises phonics stories for
grades K to 6. It runs the pipeline locally or drives a storyloom server.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.PersistentFlags().StringVarP(&c.server, "server", "s", "", "storyloom server URL (default derived from STORY_ADDR)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log pipeline calls to stderr")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.submitCommand())
	root.AddCommand(c.gradeCommand())
	root.AddCommand(c.phonicsCommand())
	return root
}

// Execute runs the root command with args and prints a failure.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.Command()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		printer{c.errOut}.Error("Error: %v", err)
		return err
	}
	return nil
}

// setup loads configuration and points the logger at stderr.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := c.loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(level), logger.WithWriter(c.errOut)); err != nil {
		return err
	}
	c.log = logger.Get().Named("storyctl")

	if c.server == "" {
		c.server = serverURL(cfg.Addr)
	}
	c.server = strings.TrimRight(c.server, "/")
	return nil
}

// serverURL turns a listen address into a local base URL.
func serverURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	if strings.Contains(addr, "://") {
		return addr
	}
	return "http://" + addr
}

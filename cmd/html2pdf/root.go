package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alnah/go-html2pdf/internal/config"
)

// File permission constants.
const (
	dirPermissions = 0o750 // rwxr-x---: owner full, group read+execute
)

// cli holds the state shared by every command of one invocation.
type cli struct {
	env    *Environment
	common commonFlags
	engine engineFlags
	cfg    *config.Config // set by setup
	logger *slog.Logger
}

func newCLI(env *Environment) *cli {
	return &cli{
		env:    env,
		cfg:    config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
}

// rootCmd builds the command tree. The root command itself converts.
func (c *cli) rootCmd() *cobra.Command {
	var f convertFlags

	root := &cobra.Command{
		Use:   "html2pdf [flags] <input>...",
		Short: "Convert HTML files, web pages or stdin to PDF",
		Long: `html2pdf renders HTML to PDF with a headless browser or wkhtmltopdf.

Each input is a file path, an http(s):// or file:// URL, or - for HTML on
stdin. Several inputs are rendered, in order, into one PDF.

Examples:
  # Convert a file next to itself (report.pdf)
  html2pdf report.html

  # Convert a page in landscape with page numbers
  html2pdf https://example.com -o example.pdf --orientation landscape --footer "[page]/[topage]"

  # Pipe HTML through
  echo "<h1>Hello</h1>" | html2pdf - -o - > hello.pdf`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd, args, &f)
		},
	}
	root.SetOut(c.env.Stdout)
	root.SetErr(c.env.Stderr)
	root.SetIn(c.env.Stdin)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	pf := root.PersistentFlags()
	addCommonFlags(pf, &c.common)
	addEngineFlags(pf, &c.engine)

	root.Flags().StringVarP(&f.output, "output", "o", "", "output PDF path, - for stdout (default: first file input with .pdf, or output.pdf)")
	addOptionFlags(root.Flags(), &f.options)

	root.AddCommand(
		c.batchCmd(),
		c.serveCmd(),
		c.doctorCmd(),
		c.optionsCmd(),
		c.versionCmd(),
	)
	return root
}

// setup resolves the configuration and configures the engine.
// Precedence: CLI flags > env vars > config file > defaults.
func (c *cli) setup(cmd *cobra.Command) error {
	c.logger = newLogger(c.env.Stderr, c.common)
	if !c.common.quiet {
		warnUnknownEnvVars(c.env.Stderr)
	}

	cfg, err := resolveConfig(c.common.config, loadEnvConfig())
	if err != nil {
		return err
	}
	applyEngineFlags(cmd.Flags(), &c.engine, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	opts, err := engineOptions(cfg, c.logger)
	if err != nil {
		return err
	}
	if err := c.env.Converter.Configure(opts...); err != nil {
		return fmt.Errorf("configuring engine: %w", err)
	}

	c.cfg = cfg
	c.logger.Debug("engine configured", "backend", cfg.Backend, "timeout", cfg.Timeout)
	return nil
}

// teardown stops the engine so no browser process outlives the command.
func (c *cli) teardown() {
	if err := c.env.Converter.Shutdown(); err != nil {
		c.logger.Warn("engine shutdown failed", "error", err)
	}
}

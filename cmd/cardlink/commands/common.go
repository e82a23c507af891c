package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/cardlink/internal/config"
	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "cardlink.yaml"

// Global is shared state handed to every command.
type Global struct {
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"cardlink.yaml" env:"CARDLINK_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Rewrite   RewriteCmd   `cmd:"" help:"Replace [[Card Name]] references in raw text with card URLs"`
	Customize CustomizeCmd `cmd:"" help:"Turn rendered card links into card-name links"`
	Resolve   ResolveCmd   `cmd:"" help:"Print the URL picked for card names"`
	Preview   PreviewCmd   `cmd:"" help:"Render the rich preview for card URLs"`
	Serve     ServeCmd     `cmd:"" help:"Run the hook HTTP server"`
	Init      InitCmd      `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; set up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(NewLogger(config.LoggingConfig{Level: config.LogLevelInfo, Format: config.LogFormatText}, c.Verbose, os.Stderr))
	return nil
}

// NewLogger builds the slog logger described by cfg. Verbose forces debug.
func NewLogger(cfg config.LoggingConfig, verbose bool, w io.Writer) *slog.Logger {
	level := cfg.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoadConfig loads root.Config and reconfigures g.Logger from it. A missing
// file at the default path yields the default configuration; a missing file
// that was asked for explicitly is an error.
func LoadConfig(g *Global, root *CLI) (*config.Config, error) {
	if _, err := os.Stat(root.Config); os.IsNotExist(err) && root.Config == DefaultConfigPath {
		g.Logger.Debug("No configuration file, using defaults", slog.String("path", root.Config))
		return config.Default(), nil
	}
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = NewLogger(cfg.Logging, root.Verbose, os.Stderr)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

func readInput(g *Global, file string) (string, error) {
	if file == "" || file == "-" {
		b, err := io.ReadAll(g.Stdin)
		if err != nil {
			return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to read stdin").Build()
		}
		return string(b), nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to read input file").WithContext("path", file).Build()
	}
	return string(b), nil
}

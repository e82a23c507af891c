package commands

import (
	"context"
	"fmt"
)

// RewriteCmd implements the 'rewrite' command.
type RewriteCmd struct {
	File     string `arg:"" optional:"" help:"Input file (default: stdin)" type:"path"`
	SkipCode bool   `help:"Leave references inside Markdown code untouched"`
}

func (c *RewriteCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(g, root)
	if err != nil {
		return err
	}
	if c.SkipCode {
		cfg.Rewrite.SkipCode = true
	}
	ctx := context.Background()
	app, err := NewApp(ctx, cfg, g.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return RunRewrite(ctx, g, app, c.File)
}

// RunRewrite rewrites the input and writes the result to g.Stdout.
func RunRewrite(ctx context.Context, g *Global, app *App, file string) error {
	in, err := readInput(g, file)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(g.Stdout, app.Hooks.BeforeCreate(ctx, in))
	return err
}

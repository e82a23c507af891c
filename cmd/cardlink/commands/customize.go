package commands

import (
	"context"
	"fmt"
)

// CustomizeCmd implements the 'customize' command.
type CustomizeCmd struct {
	File string `arg:"" optional:"" help:"Input HTML file (default: stdin)" type:"path"`
}

func (c *CustomizeCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(g, root)
	if err != nil {
		return err
	}
	app, err := NewApp(context.Background(), cfg, g.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return RunCustomize(g, app, c.File)
}

// RunCustomize customizes the input markup and writes it to g.Stdout.
func RunCustomize(g *Global, app *App, file string) error {
	in, err := readInput(g, file)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(g.Stdout, app.Hooks.BeforeRender(in))
	return err
}

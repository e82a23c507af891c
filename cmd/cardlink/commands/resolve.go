package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/server/responses"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	Names []string `arg:"" help:"Card names"`
	JSON  bool     `help:"Print one JSON object per name"`
}

func (c *ResolveCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(g, root)
	if err != nil {
		return err
	}
	ctx := context.Background()
	app, err := NewApp(ctx, cfg, g.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return RunResolve(ctx, g, app, c.Names, c.JSON)
}

// RunResolve prints the URL for each name, tab-separated from the name and
// the resolution flag, or as JSON lines.
func RunResolve(ctx context.Context, g *Global, app *App, names []string, asJSON bool) error {
	enc := json.NewEncoder(g.Stdout)
	enc.SetEscapeHTML(false)
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		res := app.Resolver.ResolveDetailed(ctx, name)
		if asJSON {
			if err := enc.Encode(responses.ResolveResponse{Name: name, URL: res.URL, Resolved: res.Resolved}); err != nil {
				return errors.WrapError(err, errors.CategoryInternal, "failed to encode result").Build()
			}
			continue
		}
		if _, err := fmt.Fprintf(g.Stdout, "%s\t%s\t%t\n", name, res.URL, res.Resolved); err != nil {
			return err
		}
	}
	return nil
}

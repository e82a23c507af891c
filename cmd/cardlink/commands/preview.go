package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/logfields"
	"git.home.luguber.info/inful/cardlink/internal/presentation"
	"git.home.luguber.info/inful/cardlink/internal/previewcache"
	"git.home.luguber.info/inful/cardlink/internal/previewclient"
)

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	URLs        []string `arg:"" help:"Card or search URLs"`
	Placeholder bool     `help:"Print the inline placeholder instead of the rich preview"`
	Remote      bool     `help:"Fetch from the configured preview endpoint instead of rendering locally"`
}

func (c *PreviewCmd) Run(g *Global, root *CLI) error {
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

	if c.Remote {
		endpoint, err := cfg.Preview.EndpointURL()
		if err != nil {
			return err
		}
		client, err := previewclient.New(endpoint)
		if err != nil {
			return err
		}
		return RunRemotePreview(ctx, g, app, client, c.URLs)
	}
	return RunPreview(ctx, g, app, c.URLs, c.Placeholder)
}

// RunPreview renders previews locally with the onebox engine.
func RunPreview(ctx context.Context, g *Global, app *App, urls []string, placeholder bool) error {
	for _, u := range urls {
		md, err := app.Engine.Fetch(ctx, u)
		if err != nil {
			return err
		}
		var markup string
		if placeholder {
			markup, err = app.Engine.PlaceholderHTML(md)
		} else {
			markup, err = app.Engine.RichHTML(md)
		}
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(g.Stdout, markup); err != nil {
			return err
		}
	}
	return nil
}

// RunRemotePreview fetches previews from a preview endpoint through a
// session cache, so repeated URLs are fetched once.
func RunRemotePreview(ctx context.Context, g *Global, app *App, fetcher previewcache.Fetcher, urls []string) error {
	cache := previewcache.New(fetcher, app.Recorder)
	for _, u := range urls {
		if !app.Customizer.Matches(u) {
			return errors.ValidationError("url is not a card lookup URL").WithContext("url", u).Build()
		}
		markup, err := cache.GetOrFetch(ctx, u)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(g.Stdout, presentation.DecoratePreview(markup)); err != nil {
			return err
		}
	}
	app.Logger.Debug("Preview session finished", logfields.Count(cache.Len()), slog.Int("requested", len(urls)))
	return nil
}

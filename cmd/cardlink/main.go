package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/cardlink/cmd/cardlink/commands"
	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("cardlink"),
		kong.Description("Link [[Card Name]] references to Scryfall card pages."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Logger: slog.Default(), Stdin: os.Stdin, Stdout: os.Stdout}
	if err := parser.Run(global, cli); err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.HandleError(err))
	}
}

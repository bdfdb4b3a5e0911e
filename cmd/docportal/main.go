package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docportal/cmd/docportal/commands"
	ferrors "git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/version"
)

func main() {
	var (
		cli    commands.CLI
		global commands.Global
	)
	parser := kong.Parse(&cli,
		kong.Name("docportal"),
		kong.Description("Documentation portal builder: homepage feature cards, sitemap, link checks and a live preview server."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(&global),
	)
	if err := parser.Run(&global, &cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/chat-context-saver/internal/common"
	"github.com/dtnitsch/chat-context-saver/internal/extract"
	"github.com/dtnitsch/chat-context-saver/internal/scrape"
	"github.com/dtnitsch/chat-context-saver/internal/serve"
	"github.com/dtnitsch/chat-context-saver/pkg/help"
	"github.com/urfave/cli/v2"
)

func flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func main() {
	app := &cli.App{
		Name:  "context-saver",
		Usage: "save a Gemini or ChatGPT conversation as a plain-text transcript",
		Flags: common.GlobalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "scrape",
				Usage:  "load the whole conversation history and print the transcript",
				Flags:  flags(common.BrowserFlags(), common.ScrollFlags(), scrape.Flags()),
				Action: scrape.ScrapeAction,
			},
			{
				Name:   "snapshot",
				Usage:  "save the annotated page for offline extraction",
				Flags:  flags(common.BrowserFlags(), scrape.SnapshotFlags()),
				Action: scrape.SnapshotAction,
			},
			{
				Name:      "extract",
				Usage:     "build a transcript from a saved snapshot",
				ArgsUsage: "SNAPSHOT_FILE",
				Flags:     extract.Flags(),
				Action:    extract.ExtractAction,
			},
			{
				Name:  "quickstart",
				Usage: "print a short usage guide",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, help.ColdstartYAML)
					return nil
				},
			},
			{
				Name:   "serve",
				Usage:  "drive the scraper from a websocket control channel",
				Flags:  flags(common.BrowserFlags(), common.ScrollFlags(), serve.Flags()),
				Action: serve.ServeAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

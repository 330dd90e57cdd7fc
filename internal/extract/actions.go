package extract

import (
	"fmt"

	"github.com/dtnitsch/chat-context-saver/internal/common"
	"github.com/dtnitsch/chat-context-saver/pkg/locator"
	"github.com/dtnitsch/chat-context-saver/pkg/snapshot"
	"github.com/dtnitsch/chat-context-saver/pkg/storage"
	"github.com/dtnitsch/chat-context-saver/pkg/transcript"
	"github.com/urfave/cli/v2"
)

// Flags returns the extract command's own flags.
func Flags() []cli.Flag {
	return []cli.Flag{
		common.RulesFlag(),
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the transcript to this file instead of stdout"},
	}
}

// ExtractAction builds a transcript from a saved snapshot without a browser.
func ExtractAction(c *cli.Context) error {
	logger := common.NewLogger(c.App.ErrWriter, c.Bool("quiet"), c.Bool("verbose"))

	if c.NArg() != 1 {
		return cli.Exit("usage: extract SNAPSHOT_FILE", 1)
	}
	path := c.Args().First()

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	rules, err := common.LoadRules(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	store := &storage.Storage{}
	if !store.HasFile(path) {
		return cli.Exit(fmt.Sprintf("snapshot not found: %s", path), 1)
	}
	data, err := store.ReadFile(path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	snap, err := snapshot.Parse(string(data))
	if err != nil {
		logger.Error("failed to parse snapshot", "error", err, "path", path)
		return cli.Exit(err.Error(), 2)
	}

	container, err := locator.FindScrollContainer(snap)
	if err != nil {
		logger.Error("no scroll container", "error", err, "path", path)
		return cli.Exit(err.Error(), 2)
	}
	logger.Info("scroll container resolved", "index", container.Index, "fallback", container.Fallback,
		"candidates", len(locator.Candidates(snap)))

	tr := transcript.New(rules, logger).FromContainer(container)
	text := tr.String()

	if out := c.String("out"); out != "" {
		if err := store.SaveFile(out, []byte(text)); err != nil {
			return cli.Exit(err.Error(), 2)
		}
		logger.Info("transcript saved", "path", out, "entries", len(tr.Entries))
		return nil
	}

	fmt.Fprintln(c.App.Writer, text)
	return nil
}

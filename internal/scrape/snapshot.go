package scrape

import (
	"context"

	"github.com/dtnitsch/chat-context-saver/internal/common"
	"github.com/dtnitsch/chat-context-saver/pkg/storage"
	"github.com/urfave/cli/v2"
)

// SnapshotFlags returns the snapshot command's own flags.
func SnapshotFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "snapshot.html", Usage: "where to save the annotated snapshot"},
	}
}

// SnapshotAction saves the annotated page without scrolling, for offline
// extraction and rule tuning.
func SnapshotAction(c *cli.Context) error {
	logger := common.NewLogger(c.App.ErrWriter, c.Bool("quiet"), c.Bool("verbose"))

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	page, err := common.OpenPage(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to open page", "error", err)
		return cli.Exit(err.Error(), common.ExitCode(err))
	}
	defer page.Close()

	snap, err := page.Snapshot()
	if err != nil {
		logger.Error("failed to capture snapshot", "error", err)
		return cli.Exit(err.Error(), 2)
	}

	out := c.String("out")
	store := &storage.Storage{}
	if err := store.SaveFile(out, []byte(snap.HTML())); err != nil {
		logger.Error("failed to save snapshot", "error", err, "path", out)
		return cli.Exit(err.Error(), 2)
	}

	logger.Info("snapshot saved", "path", out, "title", snap.Title())
	return nil
}

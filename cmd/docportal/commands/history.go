package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docportal/internal/config"
	"git.home.luguber.info/inful/docportal/internal/eventstore"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" default:"10" help:"Number of builds to show"`
	JSON  bool `name:"json" help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	cfg, err := loadConfig(ctx, root)
	if err != nil {
		return err
	}
	return RunHistory(ctx, os.Stdout, cfg, h.Limit, h.JSON)
}

// RunHistory prints the most recent builds recorded in the event store.
func RunHistory(ctx context.Context, w io.Writer, cfg *config.Config, limit int, asJSON bool) (err error) {
	store, err := eventstore.NewSQLiteStore(filepath.Join(cfg.State.Directory, EventsDBFile))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	builds, err := eventstore.RecentBuilds(ctx, store, limit)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(builds)
	}
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(w, "No builds recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tTRIGGER\tSTATUS\tSTARTED\tDURATION\tPAGES\tSITEMAP\tBROKEN")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			b.BuildID, b.Trigger, b.Status, b.StartedAt.Local().Format(time.DateTime),
			b.Duration.Round(time.Millisecond), b.Pages, b.SitemapURLs, b.BrokenLinks)
	}
	return tw.Flush()
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/docportal/internal/build"
	"git.home.luguber.info/inful/docportal/internal/config"
	ferrors "git.home.luguber.info/inful/docportal/internal/foundation/errors"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output        string `short:"o" help:"Override output.directory"`
	IncludeDrafts bool   `name:"drafts" help:"Include draft documents"`
	Strict        bool   `help:"Exit non-zero when the build ends with warnings"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	ctx, stop := signalContext()
	defer stop()
	cfg, err := loadConfig(ctx, root)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	return RunBuild(ctx, os.Stdout, cfg, build.Request{Trigger: build.TriggerCLI, IncludeDrafts: b.IncludeDrafts}, b.Strict)
}

// RunBuild runs one build and prints its summary to w.
func RunBuild(ctx context.Context, w io.Writer, cfg *config.Config, req build.Request, strict bool) (err error) {
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()

	report, err := rt.generator(cfg).Run(ctx, req)
	if report != nil {
		printReport(w, report)
	}
	if err != nil {
		return err
	}
	if strict && report.Outcome == build.OutcomeWarning {
		return ferrors.NewError(ferrors.CategoryBuild, "build finished with warnings").
			WithContext("issues", len(report.Issues)).Build()
	}
	return nil
}

func printReport(w io.Writer, r *build.BuildReport) {
	_, _ = fmt.Fprintln(w, r.Summary())
	for _, issue := range r.Issues {
		_, _ = fmt.Fprintf(w, "  %s [%s] %s: %s\n", strings.ToUpper(string(issue.Severity)), issue.Code, issue.Stage, issue.Message)
	}
	for _, link := range r.BrokenLinks {
		_, _ = fmt.Fprintf(w, "  broken link: %s\n", link)
	}
	if len(r.ChangedURLs) > 0 {
		_, _ = fmt.Fprintf(w, "  changed: %d page(s)\n", len(r.ChangedURLs))
	}
}

// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-runewidth"

	"go.astrophena.name/aboutwriter/batch"
	"go.astrophena.name/aboutwriter/cli"
	"go.astrophena.name/aboutwriter/internal/report"
	"go.astrophena.name/aboutwriter/logger"
	"go.astrophena.name/aboutwriter/stamp"
	"go.astrophena.name/aboutwriter/version"
)

func main() { cli.Main(new(app)) }

type app struct {
	exts       string
	verbose    bool
	force      bool
	recursive  bool
	dry        bool
	modTime    bool
	about      string
	configPath string
	reportPath string

	now func() time.Time // overridden in tests
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.exts, "x", "", "Only modify files with the given comma-separated `extensions`.")
	fs.BoolVar(&a.verbose, "v", false, "Show verbose output.")
	fs.BoolVar(&a.force, "f", false, "Replace existing about blocks.")
	fs.BoolVar(&a.recursive, "recursive", true, "Descend into subdirectories.")
	fs.BoolVar(&a.dry, "dry", false, "Print the files that would be changed, without making changes.")
	fs.BoolVar(&a.modTime, "mtime", false, "Stamp the file modification time instead of the current time.")
	fs.StringVar(&a.about, "about", "", "Write `text` in the About field instead of the file name.")
	fs.StringVar(&a.configPath, "config", "", "Read configuration from the txtar archive at `path`.")
	fs.StringVar(&a.reportPath, "report", "", "Write an HTML report of the run to `file`.")
}

func (a *app) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	if len(env.Args) == 0 || len(env.Args) > 2 {
		return fmt.Errorf("%w: usage: %s [flags] <path> <author>", cli.ErrInvalidArgs, version.CmdName())
	}
	root := env.Args[0]
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %v", cli.ErrInvalidArgs, err)
	}
	dir := root
	if !info.IsDir() {
		dir = filepath.Dir(root)
	}

	cfg, err := loadConfig(a.configPath, dir)
	if err != nil {
		return fmt.Errorf("%w: %v", cli.ErrInvalidArgs, err)
	}
	author := cfg.author
	if len(env.Args) == 2 {
		author = strings.TrimSpace(env.Args[1])
	}
	switch {
	case author == "":
		return fmt.Errorf("%w: missing author", cli.ErrInvalidArgs)
	case strings.ContainsAny(author, "\r\n"):
		return fmt.Errorf("%w: author must fit on one line", cli.ErrInvalidArgs)
	}

	ctx = logger.Put(ctx, newLogger(env))
	if a.verbose {
		logger.LevelVar(ctx).Set(slog.LevelDebug)
	}

	opts := batch.Options{
		Stamper: &stamp.Stamper{
			Author:     author,
			About:      a.about,
			Now:        a.now,
			UseModTime: a.modTime,
			Force:      a.force,
			DryRun:     a.dry,
		},
		Registry:  cfg.registry,
		Exts:      splitExts(a.exts),
		Recursive: a.recursive,
		Exclude:   cfg.exclusions,
	}
	if a.verbose {
		width := cli.TerminalWidth(env.Stderr)
		opts.Progress = func(current, total int, path string) {
			env.Logf("%s", progressMessage(current, total, path, width))
		}
	}

	sum, err := batch.Run(ctx, root, opts)
	if sum == nil {
		return err
	}

	if a.dry {
		for _, r := range sum.Results {
			switch r.Status {
			case batch.StatusStamped:
				logger.Info(ctx, "would add an about block", slog.String("path", r.Path))
			case batch.StatusReplaced:
				logger.Info(ctx, "would replace the about block", slog.String("path", r.Path))
			}
		}
	}
	if a.reportPath != "" {
		if err := report.WriteFile(ctx, a.reportPath, "About blocks in "+root, sum); err != nil {
			return err
		}
	}
	printSummary(env.Stdout, sum)
	return err
}

func newLogger(env *cli.Env) *logger.Logger {
	l := logger.New(nil)
	l.Attach(tint.NewHandler(env.Stderr, &tint.Options{
		Level:   l.Level,
		NoColor: !cli.WritesToTerminal(env.Stderr),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return attr
		},
	}))
	return l
}

func splitExts(s string) []string {
	var exts []string
	for ext := range strings.SplitSeq(s, ",") {
		if ext = strings.TrimSpace(ext); ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

func progressMessage(current, total int, path string, width int) string {
	prefix := fmt.Sprintf("[%d/%d] Stamping ", current, total)
	msg := prefix + path
	if width <= 0 || runewidth.StringWidth(msg) <= width {
		return msg
	}
	remaining := width - runewidth.StringWidth(prefix)
	switch {
	case remaining <= 0:
		return prefix
	case remaining <= 3:
		return prefix + runewidth.Truncate(path, remaining, "")
	default:
		return prefix + runewidth.Truncate(path, remaining, "...")
	}
}

func printSummary(w io.Writer, sum *batch.Summary) {
	c := color.New(color.FgGreen)
	if sum.Errored > 0 {
		c = color.New(color.FgYellow)
	}
	if cli.WritesToTerminal(w) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	c.Fprintln(w, sum.String())
}

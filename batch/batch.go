// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package batch stamps about blocks into a file or a tree of files.
//
// [Run] first enumerates every file it will look at and then processes them
// one at a time in walk order. A file that fails is recorded and counted; it
// never stops the rest of the batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"go.astrophena.name/aboutwriter/format"
	"go.astrophena.name/aboutwriter/logger"
	"go.astrophena.name/aboutwriter/stamp"
)

// Status is what happened to a single file.
type Status string

// Possible statuses of a file.
const (
	StatusStamped  Status = "stamped"
	StatusReplaced Status = "replaced"
	StatusSkipped  Status = "skipped"
	StatusErrored  Status = "errored"
)

// Task is a file to process. A nil Format means the file type is not
// supported.
type Task struct {
	Path   string
	Format *format.Format
	// Err is set when the file could not even be enumerated.
	Err error
}

// Result is the outcome of a single task.
type Result struct {
	Path   string
	Status Status
	// Err is the reason a file was skipped or errored.
	Err error
}

// Summary counts the outcomes of a batch.
type Summary struct {
	// Processed counts files that were written, fresh or replaced.
	Processed int
	Skipped   int
	Errored   int
	// Results lists every task in processing order.
	Results []Result
}

func (s *Summary) add(r Result) {
	switch r.Status {
	case StatusStamped, StatusReplaced:
		s.Processed++
	case StatusSkipped:
		s.Skipped++
	case StatusErrored:
		s.Errored++
	}
	s.Results = append(s.Results, r)
}

func (s *Summary) String() string {
	return fmt.Sprintf("processed %d, skipped %d, errored %d", s.Processed, s.Skipped, s.Errored)
}

// Options configure a batch.
type Options struct {
	// Stamper writes the blocks. It must not be nil.
	Stamper *stamp.Stamper
	// Registry resolves formats. Defaults to format.Builtin().
	Registry *format.Registry
	// Exts, if not empty, selects files by extension or file name instead of
	// by registry membership. Selected files of unsupported types are skipped.
	Exts []string
	// Recursive descends into subdirectories.
	Recursive bool
	// Exclude holds doublestar patterns matched against slash-separated paths
	// relative to the root.
	Exclude []string
	// Progress, if set, is called before each task is processed.
	Progress func(current, total int, path string)
}

func (o *Options) registry() *format.Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return format.Builtin()
}

// vcsDirs are never descended into.
var vcsDirs = map[string]bool{
	".git": true,
	".hg":  true,
	".svn": true,
}

// Tasks enumerates the files under root selected by opts. If root is a
// file, it is the only task.
func Tasks(root string, opts Options) ([]Task, error) {
	for _, pat := range opts.Exclude {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("bad exclude pattern %q: %w", pat, doublestar.ErrBadPattern)
		}
	}

	reg := opts.registry()
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		f, _ := reg.Lookup(root)
		return []Task{{Path: root, Format: f}}, nil
	}

	sel := newSelector(opts.Exts)
	var tasks []Task
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			tasks = append(tasks, Task{Path: path, Err: err})
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		excluded := isExcluded(opts.Exclude, rel)

		if d.IsDir() {
			if vcsDirs[d.Name()] || !opts.Recursive || excluded {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || excluded {
			return nil
		}

		f, ok := reg.Lookup(path)
		if sel != nil {
			ok = sel.match(path)
		}
		if ok {
			tasks = append(tasks, Task{Path: path, Format: f})
		}
		return nil
	})
	return tasks, err
}

func isExcluded(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// selector matches files against an extension allow-list.
type selector map[string]bool

func newSelector(exts []string) selector {
	s := make(selector)
	for _, ext := range exts {
		if ext = format.NormalizeExt(ext); ext != "" {
			s[ext] = true
		}
	}
	if len(s) == 0 {
		return nil
	}
	return s
}

func (s selector) match(path string) bool {
	return s[format.Ext(path)] || s[strings.ToLower(filepath.Base(path))]
}

// Run stamps every file selected by opts under root.
//
// Only a failure to read root itself is returned as an error. If ctx is
// canceled, Run stops before the next file and returns the partial summary
// together with the context's error.
func Run(ctx context.Context, root string, opts Options) (*Summary, error) {
	if opts.Stamper == nil {
		return nil, errors.New("batch: no stamper")
	}
	tasks, err := Tasks(root, opts)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(tasks), task.Path)
		}
		sum.add(process(ctx, opts.Stamper, task))
	}
	return sum, nil
}

func process(ctx context.Context, s *stamp.Stamper, task Task) Result {
	res := Result{Path: task.Path}
	if task.Err != nil {
		res.Status, res.Err = StatusErrored, task.Err
		logger.Warn(ctx, "cannot read", slog.String("path", task.Path), slog.Any("err", task.Err))
		return res
	}

	outcome, err := s.Apply(ctx, task.Path, task.Format)
	switch {
	case err == nil && outcome == stamp.Replaced:
		res.Status = StatusReplaced
		logger.Debug(ctx, "replaced", slog.String("path", task.Path))
	case err == nil:
		res.Status = StatusStamped
		logger.Debug(ctx, "stamped", slog.String("path", task.Path))
	case stamp.IsSkip(err):
		res.Status, res.Err = StatusSkipped, err
		logger.Debug(ctx, "skipped", slog.String("path", task.Path), slog.String("reason", err.Error()))
	default:
		res.Status, res.Err = StatusErrored, err
		logger.Warn(ctx, "failed", slog.String("path", task.Path), slog.Any("err", err))
	}
	return res
}

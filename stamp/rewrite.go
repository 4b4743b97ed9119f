// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package stamp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/natefinch/atomic"
	"github.com/otiai10/copy"

	"go.astrophena.name/aboutwriter/format"
	"go.astrophena.name/aboutwriter/logger"
)

// DefaultBackupThreshold is the file size above which a backup copy is made
// before the file is rewritten.
const DefaultBackupThreshold = 10 << 10

// BackupSuffix is appended to a file name to name its backup copy.
const BackupSuffix = ".bak"

// Errors returned by [Stamper.Apply] for files that are skipped rather than
// failed. See [IsSkip].
var (
	ErrUnsupported    = errors.New("unsupported file format")
	ErrAlreadyStamped = errors.New("about block already present")
	ErrBinary         = errors.New("not a UTF-8 text file")
)

// IsSkip reports whether err means the file was skipped on purpose.
func IsSkip(err error) bool {
	return errors.Is(err, ErrUnsupported) || errors.Is(err, ErrAlreadyStamped) || errors.Is(err, ErrBinary)
}

// BackupError is returned when the backup copy of a file could not be made.
// The file itself is left untouched.
type BackupError struct {
	Path string // path of the backup copy
	Err  error
}

func (e *BackupError) Error() string { return fmt.Sprintf("backing up to %s: %v", e.Path, e.Err) }
func (e *BackupError) Unwrap() error { return e.Err }

// Outcome is what [Stamper.Apply] did to a file.
type Outcome int

const (
	// Stamped means a new block was inserted.
	Stamped Outcome = iota
	// Replaced means an existing block was replaced with a new one.
	Replaced
)

func (o Outcome) String() string {
	switch o {
	case Stamped:
		return "stamped"
	case Replaced:
		return "replaced"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Stamper writes about blocks into files.
type Stamper struct {
	// Author goes into the Author field.
	Author string
	// About goes into the About field. If empty, "<file name> source code"
	// is used.
	About string
	// Now returns the time for the Generated field. Defaults to time.Now.
	Now func() time.Time
	// UseModTime stamps the file's modification time instead of Now.
	UseModTime bool
	// Force replaces existing blocks instead of skipping the file.
	Force bool
	// DryRun computes the outcome without writing anything.
	DryRun bool
	// BackupThreshold is the size in bytes above which a backup is made.
	// Zero means DefaultBackupThreshold; a negative value disables backups.
	BackupThreshold int64
}

func (s *Stamper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Stamper) threshold() int64 {
	if s.BackupThreshold == 0 {
		return DefaultBackupThreshold
	}
	return s.BackupThreshold
}

func (s *Stamper) about(path string) string {
	if s.About != "" {
		return s.About
	}
	return filepath.Base(path) + " source code"
}

// Apply writes an about block in format f into the file at path.
//
// Files that already carry a block are skipped with [ErrAlreadyStamped]
// unless Force is set. Files that are not valid UTF-8 text are skipped with
// [ErrBinary]. A nil f skips the file with [ErrUnsupported].
//
// If path is a symbolic link, the file it points to is stamped, backed up
// and named in the About field; the link itself is left in place.
func (s *Stamper) Apply(ctx context.Context, path string, f *format.Format) (Outcome, error) {
	if f == nil {
		return 0, ErrUnsupported
	}

	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return 0, err
	}
	if target != path {
		logger.Debug(ctx, "following symlink", slog.String("path", path), slog.String("target", target))
		path = target
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s is not a regular file", ErrUnsupported, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return 0, fmt.Errorf("%w: detected %s", ErrBinary, mimetype.Detect(data))
	}

	content := string(data)
	outcome := Stamped
	if span, ok := Find(content, f); ok {
		if !s.Force {
			return 0, ErrAlreadyStamped
		}
		content = content[:span.Start] + content[span.End:]
		outcome = Replaced
	}

	generated := s.now()
	if s.UseModTime {
		generated = info.ModTime()
	}
	block := Render(f, Block{
		About:     s.about(path),
		Author:    s.Author,
		Generated: generated,
	}, lineEnding(content))
	updated := Insert(content, block)

	if s.DryRun {
		logger.Debug(ctx, "dry run", slog.String("path", path), slog.String("outcome", outcome.String()))
		return outcome, nil
	}

	if t := s.threshold(); t >= 0 && info.Size() > t {
		bak := path + BackupSuffix
		if err := copy.Copy(path, bak, copy.Options{PreserveTimes: true}); err != nil {
			return 0, &BackupError{Path: bak, Err: err}
		}
		logger.Debug(ctx, "backed up", slog.String("path", path), slog.String("backup", bak))
	}

	if err := atomic.WriteFile(path, strings.NewReader(updated)); err != nil {
		return 0, err
	}
	return outcome, nil
}

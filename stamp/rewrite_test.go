// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package stamp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.astrophena.name/aboutwriter/testutil"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func newStamper() *Stamper {
	return &Stamper{
		Author: "Jane Doe",
		Now:    func() time.Time { return testTime },
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "main.c", "int main(void) { return 0; }\n")

		outcome, err := newStamper().Apply(ctx, path, mustLookup(t, path))
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, outcome, Stamped)
		testutil.AssertEqual(t, readFile(t, path), "/*\n About: main.c source code\n Author: Jane Doe\n Generated: 2025-01-02 15:04:05\n*/\n\nint main(void) { return 0; }\n")
	})

	t.Run("custom about", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "query.sql", "SELECT 1;\n")
		s := newStamper()
		s.About = "Reporting queries"

		_, err := s.Apply(ctx, path, mustLookup(t, path))
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, readFile(t, path), "-- About: Reporting queries\n-- Author: Jane Doe\n-- Generated: 2025-01-02 15:04:05\n\nSELECT 1;\n")
	})

	t.Run("idempotent without force", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "main.go", "package main\n")
		f := mustLookup(t, path)

		_, err := newStamper().Apply(ctx, path, f)
		testutil.AssertEqual(t, err, nil)
		first := readFile(t, path)

		later := newStamper()
		later.Now = func() time.Time { return testTime.Add(time.Hour) }
		_, err = later.Apply(ctx, path, f)
		if !errors.Is(err, ErrAlreadyStamped) {
			t.Fatalf("want ErrAlreadyStamped, got %v", err)
		}
		testutil.AssertEqual(t, IsSkip(err), true)
		testutil.AssertEqual(t, readFile(t, path), first)
	})

	t.Run("force replaces only the block", func(t *testing.T) {
		const body = "#!/usr/bin/env python\nimport sys\n\nprint(sys.argv)\n"
		path := writeFile(t, t.TempDir(), "run.py", body)
		f := mustLookup(t, path)

		_, err := newStamper().Apply(ctx, path, f)
		testutil.AssertEqual(t, err, nil)
		first := readFile(t, path)
		oldBlock := Render(f, Block{About: "run.py source code", Author: "Jane Doe", Generated: testTime}, "\n")

		forced := &Stamper{
			Author: "Johnathan Smith-Jones",
			Now:    func() time.Time { return testTime.Add(48 * time.Hour) },
			Force:  true,
		}
		outcome, err := forced.Apply(ctx, path, f)
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, outcome, Replaced)
		second := readFile(t, path)
		newBlock := Render(f, Block{About: "run.py source code", Author: "Johnathan Smith-Jones", Generated: testTime.Add(48 * time.Hour)}, "\n")

		testutil.AssertEqual(t, len(second)-len(first), len(newBlock)-len(oldBlock))
		testutil.AssertEqual(t, second, strings.Replace(first, oldBlock, newBlock, 1))
		testutil.AssertEqual(t, strings.Count(second, GeneratedField), 1)
	})

	t.Run("shebang stays first", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "run.py", "#!/usr/bin/env python\nprint(1)\n")
		_, err := newStamper().Apply(ctx, path, mustLookup(t, path))
		testutil.AssertEqual(t, err, nil)
		lines := strings.Split(readFile(t, path), "\n")
		testutil.AssertEqual(t, lines[0], "#!/usr/bin/env python")
		testutil.AssertEqual(t, lines[1], "# About: run.py source code")
	})

	t.Run("crlf", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "main.go", "package main\r\n")
		_, err := newStamper().Apply(ctx, path, mustLookup(t, path))
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, readFile(t, path), "// About: main.go source code\r\n// Author: Jane Doe\r\n// Generated: 2025-01-02 15:04:05\r\n\r\npackage main\r\n")
	})

	t.Run("unsupported", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "blob.bin", "data")
		_, err := newStamper().Apply(ctx, path, nil)
		if !errors.Is(err, ErrUnsupported) {
			t.Fatalf("want ErrUnsupported, got %v", err)
		}
		testutil.AssertEqual(t, IsSkip(err), true)
		testutil.AssertEqual(t, readFile(t, path), "data")
	})

	t.Run("binary", func(t *testing.T) {
		for name, content := range map[string]string{
			"nul byte":      "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR",
			"invalid utf-8": "caf\xe9\n",
		} {
			t.Run(name, func(t *testing.T) {
				path := writeFile(t, t.TempDir(), "file.c", content)
				_, err := newStamper().Apply(ctx, path, mustLookup(t, path))
				if !errors.Is(err, ErrBinary) {
					t.Fatalf("want ErrBinary, got %v", err)
				}
				testutil.AssertEqual(t, IsSkip(err), true)
				testutil.AssertEqual(t, readFile(t, path), content)
			})
		}
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gone.go")
		_, err := newStamper().Apply(ctx, path, mustLookup(t, path))
		if err == nil || IsSkip(err) {
			t.Fatalf("want a non-skip error, got %v", err)
		}
	})

	t.Run("php tag with code on the same line", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "index.php", "<?php declare(strict_types=1);\n\necho 1;\n")
		_, err := newStamper().Apply(ctx, path, mustLookup(t, path))
		testutil.AssertEqual(t, err, nil)
		got := readFile(t, path)
		if !strings.HasPrefix(got, "<?php declare(strict_types=1);\n/*\n About: index.php source code\n") {
			t.Fatalf("block must follow the opening tag line:\n%s", got)
		}
	})

	t.Run("symlink is written through", func(t *testing.T) {
		dir := t.TempDir()
		target := writeFile(t, dir, "real.go", "package x\n")
		link := filepath.Join(dir, "link.go")
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symlinks are not supported: %v", err)
		}

		_, err := newStamper().Apply(ctx, link, mustLookup(t, link))
		testutil.AssertEqual(t, err, nil)

		fi, err := os.Lstat(link)
		if err != nil {
			t.Fatal(err)
		}
		if fi.Mode()&os.ModeSymlink == 0 {
			t.Fatalf("%s was replaced by a %v file", link, fi.Mode())
		}
		testutil.AssertEqual(t, readFile(t, target), "// About: real.go source code\n// Author: Jane Doe\n// Generated: 2025-01-02 15:04:05\n\npackage x\n")
	})

	t.Run("dangling symlink", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "link.go")
		if err := os.Symlink(filepath.Join(dir, "gone.go"), link); err != nil {
			t.Skipf("symlinks are not supported: %v", err)
		}
		_, err := newStamper().Apply(ctx, link, mustLookup(t, link))
		if err == nil || IsSkip(err) {
			t.Fatalf("want a non-skip error, got %v", err)
		}
	})

	t.Run("dry run", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "main.go", "package main\n")
		s := newStamper()
		s.DryRun = true
		outcome, err := s.Apply(ctx, path, mustLookup(t, path))
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, outcome, Stamped)
		testutil.AssertEqual(t, readFile(t, path), "package main\n")
	})

	t.Run("modification time", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "main.go", "package main\n")
		mtime := time.Date(2019, time.March, 4, 5, 6, 7, 0, time.Local)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
		s := newStamper()
		s.UseModTime = true
		_, err := s.Apply(ctx, path, mustLookup(t, path))
		testutil.AssertEqual(t, err, nil)
		if !strings.Contains(readFile(t, path), "// Generated: 2019-03-04 05:06:07\n") {
			t.Fatalf("modification time was not stamped:\n%s", readFile(t, path))
		}
	})
}

func TestApplyBackup(t *testing.T) {
	ctx := context.Background()

	t.Run("large file is backed up", func(t *testing.T) {
		original := strings.Repeat("x = 1\n", 15<<10/6)
		path := writeFile(t, t.TempDir(), "big.py", original)

		_, err := newStamper().Apply(ctx, path, mustLookup(t, path))
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, readFile(t, path+BackupSuffix), original)
		if readFile(t, path) == original {
			t.Fatal("file was not rewritten")
		}
	})

	t.Run("backup of a symlinked file is a copy", func(t *testing.T) {
		dir := t.TempDir()
		original := strings.Repeat("x = 1\n", 15<<10/6)
		target := writeFile(t, dir, "big.py", original)
		link := filepath.Join(dir, "link.py")
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symlinks are not supported: %v", err)
		}

		_, err := newStamper().Apply(ctx, link, mustLookup(t, link))
		testutil.AssertEqual(t, err, nil)
		fi, err := os.Lstat(target + BackupSuffix)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, fi.Mode().IsRegular(), true)
		testutil.AssertEqual(t, readFile(t, target+BackupSuffix), original)
		if _, err := os.Lstat(link + BackupSuffix); !os.IsNotExist(err) {
			t.Fatalf("unexpected backup next to the link: %v", err)
		}
	})

	t.Run("small file is not backed up", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "small.py", "x = 1\n")
		_, err := newStamper().Apply(ctx, path, mustLookup(t, path))
		testutil.AssertEqual(t, err, nil)
		if _, err := os.Stat(path + BackupSuffix); !os.IsNotExist(err) {
			t.Fatalf("unexpected backup: %v", err)
		}
	})

	t.Run("custom threshold", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "small.py", "x = 1\n")
		s := newStamper()
		s.BackupThreshold = 1
		_, err := s.Apply(ctx, path, mustLookup(t, path))
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, readFile(t, path+BackupSuffix), "x = 1\n")
	})

	t.Run("failure leaves the file untouched", func(t *testing.T) {
		original := strings.Repeat("y = 2\n", 15<<10/6)
		dir := t.TempDir()
		path := writeFile(t, dir, "big.py", original)
		// A directory where the backup should go makes the copy fail.
		if err := os.Mkdir(path+BackupSuffix, 0o755); err != nil {
			t.Fatal(err)
		}

		_, err := newStamper().Apply(ctx, path, mustLookup(t, path))
		var be *BackupError
		if !errors.As(err, &be) {
			t.Fatalf("want *BackupError, got %v", err)
		}
		testutil.AssertEqual(t, be.Path, path+BackupSuffix)
		testutil.AssertEqual(t, IsSkip(err), false)
		testutil.AssertEqual(t, readFile(t, path), original)
	})
}

func TestOutcomeString(t *testing.T) {
	testutil.AssertEqual(t, Stamped.String(), "stamped")
	testutil.AssertEqual(t, Replaced.String(), "replaced")
	testutil.AssertEqual(t, Outcome(7).String(), "Outcome(7)")
}

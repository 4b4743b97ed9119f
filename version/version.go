// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package version provides build information about the running binary.
package version

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"go.astrophena.name/aboutwriter/syncx"
)

// Info describes a build of the program.
type Info struct {
	// Name is the name of the binary.
	Name string `json:"name"`
	// Version is the module version, or "devel" for local builds.
	Version string `json:"version"`
	// Commit is the VCS revision the binary was built from, if known.
	Commit string `json:"commit,omitempty"`
	// Dirty reports whether the working tree had local modifications.
	Dirty bool `json:"dirty,omitempty"`
	// Go is the toolchain version used to build the binary.
	Go string `json:"go"`
}

// String returns a human-readable representation of i, terminated by a newline.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", i.Name, i.Version)
	if i.Commit != "" {
		commit := i.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		fmt.Fprintf(&sb, " (%s", commit)
		if i.Dirty {
			sb.WriteString(", dirty")
		}
		sb.WriteString(")")
	}
	fmt.Fprintf(&sb, " built with %s\n", i.Go)
	return sb.String()
}

var info syncx.Lazy[Info]

// Version returns build information of the running binary.
func Version() Info {
	return info.Get(func() Info {
		i := Info{
			Name:    CmdName(),
			Version: "devel",
			Go:      runtime.Version(),
		}
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return i
		}
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			i.Version = v
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				i.Commit = s.Value
			case "vcs.modified":
				i.Dirty = s.Value == "true"
			}
		}
		return i
	})
}

// CmdName returns the base name of the running binary without an extension.
func CmdName() string {
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, filepath.Ext(name))
}

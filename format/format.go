// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package format maps file names to the comment syntax used to write an
// about block into them.
//
// The built-in table lives in formats.toml and is decoded on first use. A
// project can layer its own formats over it with [Registry.Merge].
package format

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"go.astrophena.name/aboutwriter/syncx"
	"go.astrophena.name/aboutwriter/unwrap"
)

// Style is the shape of a comment.
type Style string

// Known comment styles.
const (
	// StyleBlock wraps field lines between Open and Close lines ("/*", "*/").
	StyleBlock Style = "block"
	// StyleLine prefixes every field line with Prefix ("#", "//").
	StyleLine Style = "line"
	// StyleXML is a block comment with "<!--" and "-->" delimiters.
	StyleXML Style = "xml"
	// StylePercent is a line comment with the "%" prefix.
	StylePercent Style = "percent"
	// StyleSQLDash is a line comment with the "--" prefix.
	StyleSQLDash Style = "sql-dash"
	// StyleNone writes bare field lines without any comment syntax.
	StyleNone Style = "none"
)

// ErrUnknownStyle is returned for a format with an unsupported style.
var ErrUnknownStyle = errors.New("unknown comment style")

// Format describes the comment syntax of a file type.
type Format struct {
	Name   string   `toml:"name"`
	Style  Style    `toml:"style"`
	Open   string   `toml:"open"`
	Close  string   `toml:"close"`
	Prefix string   `toml:"prefix"`
	Exts   []string `toml:"exts"`
	Names  []string `toml:"names"`
}

// Delimited reports whether f is written between an opening and a closing
// line.
func (f *Format) Delimited() bool {
	return f.Style == StyleBlock || f.Style == StyleXML
}

// FieldLead returns the text written in front of every field line.
func (f *Format) FieldLead() string {
	switch {
	case f.Delimited():
		return " "
	case f.Style == StyleNone:
		return ""
	default:
		return f.Prefix + " "
	}
}

// Validate fills in the delimiters implied by f's style and checks that the
// remaining ones are consistent with it.
func (f *Format) Validate() error {
	switch f.Style {
	case StyleXML:
		if f.Open == "" && f.Close == "" {
			f.Open, f.Close = "<!--", "-->"
		}
	case StylePercent:
		if f.Prefix == "" {
			f.Prefix = "%"
		}
	case StyleSQLDash:
		if f.Prefix == "" {
			f.Prefix = "--"
		}
	case StyleBlock, StyleLine, StyleNone:
	default:
		return fmt.Errorf("format %q: %w %q", f.Name, ErrUnknownStyle, f.Style)
	}

	switch {
	case f.Delimited() && (f.Open == "" || f.Close == ""):
		return fmt.Errorf("format %q: %s style needs both open and close delimiters", f.Name, f.Style)
	case f.Delimited() && f.Prefix != "":
		return fmt.Errorf("format %q: %s style takes no prefix", f.Name, f.Style)
	case !f.Delimited() && (f.Open != "" || f.Close != ""):
		return fmt.Errorf("format %q: %s style takes no open or close delimiters", f.Name, f.Style)
	case f.Style == StyleNone && f.Prefix != "":
		return fmt.Errorf("format %q: none style takes no prefix", f.Name)
	case f.Style != StyleNone && !f.Delimited() && f.Prefix == "":
		return fmt.Errorf("format %q: %s style needs a prefix", f.Name, f.Style)
	case len(f.Exts) == 0 && len(f.Names) == 0:
		return fmt.Errorf("format %q: no extensions or file names", f.Name)
	}
	for _, s := range []string{f.Open, f.Close, f.Prefix} {
		if strings.ContainsAny(s, "\r\n") {
			return fmt.Errorf("format %q: delimiters must fit on one line", f.Name)
		}
	}
	return nil
}

// Decode parses a TOML document holding a list of [[format]] tables.
// Unknown keys are an error.
func Decode(data []byte) ([]Format, error) {
	var doc struct {
		Format []Format `toml:"format"`
	}
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in formats: %v", undecoded)
	}
	return doc.Format, nil
}

// NormalizeExt strips a leading dot from ext and lowercases it.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Ext returns the normalized extension of path, or "" if it has none.
func Ext(path string) string {
	return NormalizeExt(filepath.Ext(path))
}

//go:embed formats.toml
var builtinTOML []byte

var builtin syncx.Lazy[*Registry]

// Builtin returns the registry of built-in formats.
func Builtin() *Registry {
	return builtin.Get(func() *Registry {
		return unwrap.Value(New(unwrap.Value(Decode(builtinTOML))))
	})
}

// Lookup finds the built-in format for path. See [Registry.Lookup].
func Lookup(path string) (*Format, bool) { return Builtin().Lookup(path) }

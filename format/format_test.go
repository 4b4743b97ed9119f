// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package format

import (
	"errors"
	"strings"
	"testing"

	"go.astrophena.name/aboutwriter/testutil"
)

func TestLookup(t *testing.T) {
	cases := map[string]struct {
		path     string
		wantName string
		wantOK   bool
	}{
		"go":                      {path: "main.go", wantName: "Slash", wantOK: true},
		"upper case extension":    {path: "SCRIPT.PY", wantName: "Hash", wantOK: true},
		"nested path":             {path: "src/app/index.tsx", wantName: "C", wantOK: true},
		"dockerfile":              {path: "build/Dockerfile", wantName: "Hash", wantOK: true},
		"makefile in lower case":  {path: "makefile", wantName: "Hash", wantOK: true},
		"name wins over ext":      {path: "CMakeLists.txt", wantName: "Hash", wantOK: true},
		"text":                    {path: "notes.txt", wantName: "Text", wantOK: true},
		"markup":                  {path: "index.HTML", wantName: "Markup", wantOK: true},
		"perl":                    {path: "tool.pl", wantName: "Perl", wantOK: true},
		"sql":                     {path: "schema.sql", wantName: "SQL", wantOK: true},
		"tex":                     {path: "paper.tex", wantName: "Percent", wantOK: true},
		"binary":                  {path: "blob.bin", wantOK: false},
		"plain json is left out":  {path: "package.json", wantOK: false},
		"no extension":            {path: "LICENSE", wantOK: false},
		"ambiguous .m":            {path: "plot.m", wantOK: false},
		"dotfile is an extension": {path: ".bashrc", wantOK: false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f, ok := Lookup(tc.path)
			testutil.AssertEqual(t, ok, tc.wantOK)
			if ok {
				testutil.AssertEqual(t, f.Name, tc.wantName)
			}
		})
	}
}

func TestLookupExt(t *testing.T) {
	for _, ext := range []string{"py", ".py", ".PY", "Py", " py "} {
		f, ok := Builtin().LookupExt(ext)
		if !ok {
			t.Fatalf("LookupExt(%q): not found", ext)
		}
		testutil.AssertEqual(t, f.Prefix, "#")
	}
	if _, ok := Builtin().LookupExt(""); ok {
		t.Fatal("LookupExt(\"\") must not find anything")
	}
}

func TestBuiltinFormatsAreValid(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range Builtin().Formats() {
		if err := f.Validate(); err != nil {
			t.Errorf("format %q: %v", f.Name, err)
		}
		for _, ext := range f.Exts {
			if ext != NormalizeExt(ext) {
				t.Errorf("format %q: extension %q is not normalized", f.Name, ext)
			}
			if seen[ext] {
				t.Errorf("extension %q registered twice", ext)
			}
			seen[ext] = true
		}
	}
	// Extensions that must always be supported.
	for _, ext := range strings.Fields("py java c php html css js pl sh cpp cs r txt") {
		if !seen[ext] {
			t.Errorf("extension %q is missing", ext)
		}
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		in        Format
		wantErr   bool
		wantOpen  string
		wantClose string
		wantPre   string
	}{
		"block": {
			in:        Format{Name: "c", Style: StyleBlock, Open: "/*", Close: "*/", Exts: []string{"c"}},
			wantOpen:  "/*",
			wantClose: "*/",
		},
		"xml gets default delimiters": {
			in:        Format{Name: "html", Style: StyleXML, Exts: []string{"html"}},
			wantOpen:  "<!--",
			wantClose: "-->",
		},
		"percent gets default prefix": {
			in:      Format{Name: "tex", Style: StylePercent, Exts: []string{"tex"}},
			wantPre: "%",
		},
		"sql-dash gets default prefix": {
			in:      Format{Name: "sql", Style: StyleSQLDash, Exts: []string{"sql"}},
			wantPre: "--",
		},
		"none": {
			in: Format{Name: "txt", Style: StyleNone, Exts: []string{"txt"}},
		},
		"block without close": {
			in:      Format{Name: "bad", Style: StyleBlock, Open: "/*", Exts: []string{"x"}},
			wantErr: true,
		},
		"line without prefix": {
			in:      Format{Name: "bad", Style: StyleLine, Exts: []string{"x"}},
			wantErr: true,
		},
		"line with open": {
			in:      Format{Name: "bad", Style: StyleLine, Prefix: "#", Open: "/*", Exts: []string{"x"}},
			wantErr: true,
		},
		"none with prefix": {
			in:      Format{Name: "bad", Style: StyleNone, Prefix: "#", Exts: []string{"x"}},
			wantErr: true,
		},
		"multiline delimiter": {
			in:      Format{Name: "bad", Style: StyleLine, Prefix: "#\n#", Exts: []string{"x"}},
			wantErr: true,
		},
		"no keys": {
			in:      Format{Name: "bad", Style: StyleLine, Prefix: "#"},
			wantErr: true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := tc.in
			err := f.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error, got nil")
				}
				return
			}
			testutil.AssertEqual(t, err, nil)
			testutil.AssertEqual(t, f.Open, tc.wantOpen)
			testutil.AssertEqual(t, f.Close, tc.wantClose)
			testutil.AssertEqual(t, f.Prefix, tc.wantPre)
		})
	}

	t.Run("unknown style", func(t *testing.T) {
		f := Format{Name: "bad", Style: "fancy", Exts: []string{"x"}}
		if err := f.Validate(); !errors.Is(err, ErrUnknownStyle) {
			t.Fatalf("want ErrUnknownStyle, got %v", err)
		}
	})
}

func TestFieldLead(t *testing.T) {
	cases := map[string]struct {
		path string
		want string
	}{
		"block":    {path: "a.c", want: " "},
		"xml":      {path: "a.html", want: " "},
		"line":     {path: "a.py", want: "# "},
		"percent":  {path: "a.tex", want: "% "},
		"sql-dash": {path: "a.sql", want: "-- "},
		"none":     {path: "a.txt", want: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f, ok := Lookup(tc.path)
			if !ok {
				t.Fatalf("%s is not registered", tc.path)
			}
			testutil.AssertEqual(t, f.FieldLead(), tc.want)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		fs, err := Decode([]byte(`
[[format]]
name = "Nix"
style = "line"
prefix = "#"
exts = ["nix"]
`))
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, fs, []Format{{Name: "Nix", Style: StyleLine, Prefix: "#", Exts: []string{"nix"}}})
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Decode([]byte("[[format]]\nname = \"x\"\ncolour = \"red\"\n"))
		if err == nil {
			t.Fatal("want error for an unknown key, got nil")
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		if _, err := Decode([]byte("[[format")); err == nil {
			t.Fatal("want syntax error, got nil")
		}
	})
}

func TestNew(t *testing.T) {
	_, err := New([]Format{
		{Name: "one", Style: StyleLine, Prefix: "#", Exts: []string{"x"}},
		{Name: "two", Style: StyleLine, Prefix: "//", Exts: []string{".X"}},
	})
	if err == nil {
		t.Fatal("want error for an extension claimed twice, got nil")
	}
}

func TestMerge(t *testing.T) {
	r, err := Builtin().Merge([]Format{
		{Name: "Nix", Style: StyleLine, Prefix: "#", Exts: []string{".nix"}},
		{Name: "Objective-C", Style: StyleBlock, Open: "/*", Close: "*/", Exts: []string{"m"}},
		{Name: "Justfile", Style: StyleLine, Prefix: "#", Names: []string{"Justfile"}},
		{Name: "Plain Markdown", Style: StyleNone, Exts: []string{"md"}},
	})
	testutil.AssertEqual(t, err, nil)

	f, ok := r.Lookup("default.nix")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, f.Name, "Nix")

	f, ok = r.Lookup("main.m")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, f.Name, "Objective-C")

	f, ok = r.Lookup("justfile")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, f.Name, "Justfile")

	f, ok = r.Lookup("README.md")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, f.Name, "Plain Markdown")

	// Built-in formats are untouched.
	_, ok = Builtin().Lookup("main.m")
	testutil.AssertEqual(t, ok, false)
	f, _ = Builtin().Lookup("README.md")
	testutil.AssertEqual(t, f.Name, "Markup")
	_, ok = Builtin().Lookup("default.nix")
	testutil.AssertEqual(t, ok, false)

	t.Run("invalid", func(t *testing.T) {
		if _, err := Builtin().Merge([]Format{{Name: "bad", Style: StyleBlock, Exts: []string{"x"}}}); err == nil {
			t.Fatal("want error, got nil")
		}
	})
}

// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package format

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Registry maps extensions and file names to formats. It is immutable once
// built.
type Registry struct {
	formats []*Format
	exts    map[string]*Format
	names   map[string]*Format
}

// New builds a registry from formats. Each extension and file name must be
// claimed by exactly one format.
func New(formats []Format) (*Registry, error) {
	r := &Registry{
		exts:  make(map[string]*Format),
		names: make(map[string]*Format),
	}
	if err := r.add(formats); err != nil {
		return nil, err
	}
	return r, nil
}

// Merge returns a new registry with formats layered over r. Extensions and
// file names claimed by formats take precedence over the ones in r, but must
// still be unique among formats.
func (r *Registry) Merge(formats []Format) (*Registry, error) {
	m := &Registry{
		exts:  make(map[string]*Format, len(r.exts)),
		names: make(map[string]*Format, len(r.names)),
	}
	for k, f := range r.exts {
		m.exts[k] = f
	}
	for k, f := range r.names {
		m.names[k] = f
	}
	m.formats = append(m.formats, r.formats...)
	if err := m.add(formats); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Registry) add(formats []Format) error {
	exts := make(map[string]string)
	names := make(map[string]string)
	for _, f := range formats {
		if err := f.Validate(); err != nil {
			return err
		}
		f.Exts = normalizeAll(f.Exts, NormalizeExt)
		f.Names = normalizeAll(f.Names, strings.ToLower)
		for _, ext := range f.Exts {
			if prev, dup := exts[ext]; dup {
				return fmt.Errorf("extension %q is claimed by both %q and %q", ext, prev, f.Name)
			}
			exts[ext] = f.Name
		}
		for _, name := range f.Names {
			if prev, dup := names[name]; dup {
				return fmt.Errorf("file name %q is claimed by both %q and %q", name, prev, f.Name)
			}
			names[name] = f.Name
		}

		p := &f
		for _, ext := range f.Exts {
			r.exts[ext] = p
		}
		for _, name := range f.Names {
			r.names[name] = p
		}
		r.formats = append(r.formats, p)
	}
	return nil
}

func normalizeAll(in []string, norm func(string) string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = norm(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Lookup finds the format for path. A registered file name, compared
// case-insensitively against the base name of path, wins over the extension.
func (r *Registry) Lookup(path string) (*Format, bool) {
	if f, ok := r.names[strings.ToLower(filepath.Base(path))]; ok {
		return f, true
	}
	return r.LookupExt(filepath.Ext(path))
}

// LookupExt finds the format for an extension, with or without the leading
// dot, in any case.
func (r *Registry) LookupExt(ext string) (*Format, bool) {
	ext = NormalizeExt(ext)
	if ext == "" {
		return nil, false
	}
	f, ok := r.exts[ext]
	return f, ok
}

// Formats returns the formats of r in the order they were added.
func (r *Registry) Formats() []*Format { return r.formats }

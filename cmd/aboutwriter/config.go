// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.astrophena.name/aboutwriter/format"
	"go.astrophena.name/aboutwriter/txtar"
)

const configName = ".aboutwriter.txtar"

type config struct {
	author     string
	exclusions []string
	registry   *format.Registry
}

// loadConfig reads the configuration archive at path. If path is empty, the
// archive is looked up in dir and may be missing.
func loadConfig(path, dir string) (*config, error) {
	cfg := &config{registry: format.Builtin()}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, configName)
	}
	ar, err := txtar.ParseFile(path)
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	for _, f := range ar.Files {
		switch f.Name {
		case "author.txt":
			cfg.author = strings.TrimSpace(string(f.Data))
		case "exclusions.json":
			if err := json.Unmarshal(f.Data, &cfg.exclusions); err != nil {
				return nil, fmt.Errorf("%s: exclusions.json: %w", path, err)
			}
		case "formats.toml":
			formats, err := format.Decode(f.Data)
			if err != nil {
				return nil, fmt.Errorf("%s: formats.toml: %w", path, err)
			}
			if cfg.registry, err = cfg.registry.Merge(formats); err != nil {
				return nil, fmt.Errorf("%s: formats.toml: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("%s: unknown file %q", path, f.Name)
		}
	}
	return cfg, nil
}

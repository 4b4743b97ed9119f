// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Aboutwriter adds an "about" comment block to source files.

Usage:

	aboutwriter [flags] <path> <author> [flags]

The block names the file, its author and the time it was generated, written
in the comment syntax of the file's type:

	#!/usr/bin/env python3
	# About: build.py source code
	# Author: Jane Doe
	# Generated: 2025-01-02 15:04:05

	import sys

If path is a directory, every file of a known type inside it is stamped,
descending into subdirectories unless -recursive=false is given. The -x flag
restricts processing to a comma-separated list of extensions; files selected
this way that have no known comment syntax are skipped.

The block goes after an interpreter line (#!), a document type or XML
declaration, or an opening <?php tag, and at the top of the file otherwise.
Files that already have a block are skipped unless -f is given, in which case
the old block is replaced. Files larger than 10 KiB are copied to a sibling
.bak file before they are rewritten.

A file that cannot be processed is reported and counted, but never stops the
run. The exit status is 0 once all files have been looked at, and 2 if the
arguments are invalid.

Configuration is read from the txtar archive given with -config, or from
.aboutwriter.txtar in the target directory when it exists. The archive can
contain the following files:

  - author.txt: the author to use when none is given on the command line.
  - exclusions.json: a JSON array of doublestar patterns (e.g. "vendor/**")
    matched against paths relative to the target directory.
  - formats.toml: [[format]] tables adding or overriding comment syntaxes,
    with the keys name, style (block, line, xml, percent, sql-dash or none),
    open, close, prefix, exts and names.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/aboutwriter/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }

// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package stamp

import (
	"regexp"
	"strings"
)

// codingCookie matches a Python source encoding declaration (PEP 263), which
// must stay on the first or second line of a file.
var codingCookie = regexp.MustCompile(`^[ \t\f]*#.*?coding[:=][ \t]*[-_.a-zA-Z0-9]+`)

// InsertionPoint returns the byte offset in content at which an about block
// goes. The first matching rule wins:
//
//  1. after an interpreter line ("#!...", but not a Rust inner attribute
//     "#![...]") and a following encoding declaration, or after an encoding
//     declaration on the first line;
//  2. after a markup declaration ("<!DOCTYPE ...>", "<?xml ...?>");
//  3. after the line that opens an embedded script ("<?php", "<?", "<%"),
//     even when code follows the tag on that line;
//  4. at the top of the file.
//
// A byte order mark always stays in front.
func InsertionPoint(content string) int {
	off := 0
	if strings.HasPrefix(content, bom) {
		off = len(bom)
	}
	first, n := firstLine(content[off:])
	lower := strings.ToLower(strings.TrimSpace(first))

	switch {
	case strings.HasPrefix(first, "#!") && !strings.HasPrefix(first, "#!["):
		off += n
		if second, m := firstLine(content[off:]); codingCookie.MatchString(second) {
			off += m
		}
	case codingCookie.MatchString(first):
		off += n
	case strings.HasPrefix(lower, "<!doctype"), strings.HasPrefix(lower, "<?xml"):
		off += n
	case isScriptOpen(lower):
		off += n
	}
	return off
}

// isScriptOpen reports whether line starts with a PHP or ASP-style opening
// tag. XML declarations are handled before this is called.
func isScriptOpen(line string) bool {
	if strings.HasPrefix(line, "<?php") || strings.HasPrefix(line, "<%") {
		return true
	}
	rest, ok := strings.CutPrefix(line, "<?")
	return ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '=')
}

// firstLine returns the first line of s without its line ending, and the
// length of the line including the line ending.
func firstLine(s string) (line string, n int) {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return s, len(s)
	}
	return trimEOL(s[:i+1]), i + 1
}

// Insert returns content with block placed at its [InsertionPoint]. The block
// is followed by a blank line unless nothing comes after it.
func Insert(content, block string) string {
	at := InsertionPoint(content)
	eol := lineEnding(content)
	head, tail := content[:at], content[at:]
	if strings.TrimPrefix(head, bom) != "" && !strings.HasSuffix(head, "\n") {
		head += eol
	}
	if tail == "" {
		return head + block
	}
	return head + block + eol + tail
}

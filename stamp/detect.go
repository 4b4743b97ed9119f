// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package stamp

import (
	"strings"

	"go.astrophena.name/aboutwriter/format"
)

// ScanLines is the number of leading lines searched for an existing block.
const ScanLines = 20

const bom = "\ufeff"

// Span is a byte range [Start, End) of a file's content.
type Span struct {
	Start, End int
}

// Find looks for an about block in format f within the first [ScanLines]
// lines of content. The returned span covers the whole block and the blank
// line that separates it from the rest of the file, if there is one.
func Find(content string, f *format.Format) (Span, bool) {
	base := 0
	if strings.HasPrefix(content, bom) {
		base = len(bom)
	}
	lines := splitLines(content[base:])
	offsets := make([]int, len(lines))
	off := base
	for i, line := range lines {
		offsets[i] = off
		off += len(line)
	}

	lead := f.FieldLead()
	isField := func(i int, label string) bool {
		return i >= 0 && i < len(lines) && strings.HasPrefix(trimEOL(lines[i]), lead+label)
	}
	isDelim := func(i int, delim string) bool {
		return i >= 0 && i < len(lines) && strings.TrimSpace(lines[i]) == delim
	}

	for i := range min(len(lines), ScanLines) {
		if !isField(i, GeneratedField) || !isField(i-1, AuthorField) || !isField(i-2, AboutField) {
			continue
		}
		first, last := i-2, i
		if f.Delimited() {
			first, last = first-1, last+1
			if !isDelim(first, f.Open) || !isDelim(last, f.Close) {
				continue
			}
		}
		end := offsets[last] + len(lines[last])
		if last+1 < len(lines) && trimEOL(lines[last+1]) == "" {
			end += len(lines[last+1])
		}
		return Span{Start: offsets[first], End: end}, true
	}
	return Span{}, false
}

// HasBlock reports whether content already carries an about block in
// format f.
func HasBlock(content string, f *format.Format) bool {
	_, ok := Find(content, f)
	return ok
}

// splitLines splits s after each "\n". A final line without a newline is
// kept; an empty s has no lines.
func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// lineEnding returns the line ending used by the first line of content.
func lineEnding(content string) string {
	if i := strings.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

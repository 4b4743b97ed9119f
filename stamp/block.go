// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package stamp renders about blocks, finds them in existing files and
// writes them into files.
//
// An about block records who generated a file and when:
//
//	/*
//	 About: main.c source code
//	 Author: Jane Doe
//	 Generated: 2025-01-02 15:04:05
//	*/
//
// The comment syntax comes from a [format.Format]. [Find] recognizes blocks
// written by [Render], so stamping a file twice leaves it unchanged unless
// the old block is explicitly replaced.
package stamp

import (
	"strings"
	"time"

	"go.astrophena.name/aboutwriter/format"
)

// TimeLayout is the layout of the Generated field.
const TimeLayout = "2006-01-02 15:04:05"

// Field labels, in the order they are written.
const (
	AboutField     = "About:"
	AuthorField    = "Author:"
	GeneratedField = "Generated:"
)

// Block is the content of an about block.
type Block struct {
	About     string
	Author    string
	Generated time.Time
}

var flatten = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func field(label, value string) string {
	value = strings.TrimSpace(flatten.Replace(value))
	if value == "" {
		return label
	}
	return label + " " + value
}

// Render returns the text of b written as a comment in format f. Every line,
// including the last one, ends with eol, which defaults to "\n".
func Render(f *format.Format, b Block, eol string) string {
	if eol == "" {
		eol = "\n"
	}
	lead := f.FieldLead()

	var sb strings.Builder
	if f.Delimited() {
		sb.WriteString(f.Open + eol)
	}
	for _, line := range []string{
		field(AboutField, b.About),
		field(AuthorField, b.Author),
		field(GeneratedField, b.Generated.Format(TimeLayout)),
	} {
		sb.WriteString(lead + line + eol)
	}
	if f.Delimited() {
		sb.WriteString(f.Close + eol)
	}
	return sb.String()
}

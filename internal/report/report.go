// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package report renders the results of a batch as an HTML page.
//
// The components are written against the templ runtime the same way
// generated code is: they share a pooled [templruntime.Buffer] with the
// components they render, and escape every value they print.
package report

import (
	"bufio"
	"context"
	"os"

	"github.com/a-h/templ"
	templruntime "github.com/a-h/templ/runtime"

	"go.astrophena.name/aboutwriter/batch"
)

const style = `body{font-family:system-ui,sans-serif;margin:2rem}
table{border-collapse:collapse}
th,td{padding:.25rem .75rem;text-align:left;border-bottom:1px solid #ddd}
.stamped,.replaced{color:#1a7f37}
.skipped{color:#9a6700}
.errored{color:#cf222e}`

// Page returns a component listing every result of sum.
func Page(title string, sum *batch.Summary) templ.Component {
	return component(func(ctx context.Context, buf *templruntime.Buffer) error {
		if err := write(buf,
			raw("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>"),
			text(title),
			raw("</title>\n<style>"),
		); err != nil {
			return err
		}
		if err := templ.Raw(style).Render(ctx, buf); err != nil {
			return err
		}
		if err := write(buf,
			raw("</style>\n</head>\n<body>\n<h1>"),
			text(title),
			raw("</h1>\n<p>"),
			text(sum.String()),
			raw("</p>\n<table>\n<thead><tr><th>File</th><th>Status</th><th>Reason</th></tr></thead>\n<tbody>\n"),
		); err != nil {
			return err
		}
		for _, r := range sum.Results {
			if err := row(r).Render(ctx, buf); err != nil {
				return err
			}
		}
		return write(buf, raw("</tbody>\n</table>\n</body>\n</html>\n"))
	})
}

func row(r batch.Result) templ.Component {
	return component(func(_ context.Context, buf *templruntime.Buffer) error {
		var reason string
		if r.Err != nil {
			reason = r.Err.Error()
		}
		return write(buf,
			raw("<tr class=\""),
			text(string(r.Status)),
			raw("\"><td>"),
			text(r.Path),
			raw("</td><td>"),
			text(string(r.Status)),
			raw("</td><td>"),
			text(reason),
			raw("</td></tr>\n"),
		)
	})
}

// component adapts f to [templ.Component]. Like a generated component, it
// stops on a canceled context and reuses the writer's buffer when it is
// rendered inside another component.
func component(f func(context.Context, *templruntime.Buffer) error) templ.Component {
	return templruntime.GeneratedTemplate(func(in templruntime.GeneratedComponentInput) (err error) {
		ctx := in.Context
		if err := ctx.Err(); err != nil {
			return err
		}
		buf, isBuffer := templruntime.GetBuffer(in.Writer)
		if !isBuffer {
			defer func() {
				if bufErr := templruntime.ReleaseBuffer(buf); err == nil {
					err = bufErr
				}
			}()
		}
		return f(templ.InitializeContext(ctx), buf)
	})
}

type part func(*templruntime.Buffer) error

// raw writes markup as is.
func raw(s string) part {
	return func(buf *templruntime.Buffer) error {
		_, err := buf.WriteString(s)
		return err
	}
}

// text writes an escaped value.
func text(v string) part {
	return func(buf *templruntime.Buffer) error {
		s, err := templ.JoinStringErrs(v)
		if err != nil {
			return err
		}
		_, err = buf.WriteString(templ.EscapeString(s))
		return err
	}
}

func write(buf *templruntime.Buffer, parts ...part) error {
	for _, p := range parts {
		if err := p(buf); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile renders [Page] into the file at path.
func WriteFile(ctx context.Context, path, title string, sum *batch.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := Page(title, sum).Render(ctx, bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Package templates holds the HTML components served to browsers.
package templates

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

// BatchView is the data shown after a batch finishes.
type BatchView struct {
	Message  string
	RunID    string
	Total    int
	Sent     int
	Failed   int
	Duration time.Duration
}

// TablesView is the data for the index page.
type TablesView struct {
	Source        string
	Pending       int
	Archive       string
	Archived      int
	ArchiveExists bool
	Running       bool
	Error         string
}

const pageStyle = `body{font-family:system-ui,sans-serif;max-width:48rem;margin:2rem auto;padding:0 1rem;color:#1f2937}` +
	`table{border-collapse:collapse;width:100%}td,th{border-bottom:1px solid #e5e7eb;padding:.4rem;text-align:left}` +
	`.alert{border:1px solid #fca5a5;background:#fef2f2;padding:.75rem;border-radius:.375rem}` +
	`.code{color:#6b7280;font-size:.85em}button{padding:.5rem 1rem}`

// Page wraps body in the document shell.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			templ.EscapeString(title), pageStyle); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// Tables renders the table summary with a trigger form.
func Tables(v TablesView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		e := templ.EscapeString
		archived := "not created yet"
		if v.ArchiveExists {
			archived = fmt.Sprintf("%d", v.Archived)
		}
		_, err := fmt.Fprintf(w, "<h1>Salary review letters</h1>"+
			"<table><tr><th>Table</th><th>Rows</th></tr>"+
			"<tr><td>%s (pending)</td><td>%d</td></tr>"+
			"<tr><td>%s (sent)</td><td>%s</td></tr></table>",
			e(v.Source), v.Pending, e(v.Archive), e(archived))
		if err != nil {
			return err
		}
		if v.Error != "" {
			if _, err := fmt.Fprintf(w, "<p class=\"alert\">%s</p>", e(v.Error)); err != nil {
				return err
			}
		}
		if v.Running {
			_, err = io.WriteString(w, "<p>A batch is running.</p>")
			return err
		}
		_, err = io.WriteString(w, "<form method=\"post\" action=\"/process-payroll\"><button type=\"submit\">Send letters</button></form>")
		return err
	})
}

// BatchSummary renders the outcome of a batch.
func BatchSummary(v BatchView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		e := templ.EscapeString
		_, err := fmt.Fprintf(w, "<h1>%s</h1><p class=\"code\">Run %s, %s</p>"+
			"<table><tr><th>Rows</th><td>%d</td></tr><tr><th>Sent</th><td>%d</td></tr><tr><th>Failed</th><td>%d</td></tr></table>",
			e(v.Message), e(v.RunID), v.Duration.Round(time.Millisecond), v.Total, v.Sent, v.Failed)
		if err != nil || v.Failed == 0 {
			return err
		}
		_, err = fmt.Fprintf(w, "<p>%d row(s) stayed in the pending table. See the log for run %s.</p>", v.Failed, e(v.RunID))
		return err
	})
}

// ErrorAlert renders an error fragment, used standalone for HTMX requests.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		e := templ.EscapeString
		var err error
		if action != "" {
			_, err = fmt.Fprintf(w, "<div class=\"alert\" role=\"alert\"><strong>%s</strong><p>%s</p><span class=\"code\">%s</span></div>",
				e(message), e(action), e(code))
		} else {
			_, err = fmt.Fprintf(w, "<div class=\"alert\" role=\"alert\"><strong>%s</strong><span class=\"code\">%s</span></div>",
				e(message), e(code))
		}
		return err
	})
}

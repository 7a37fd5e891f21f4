// Package letter renders salary-review letters as single-page PDFs and
// composes the email that carries them.
package letter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/go-pdf/fpdf"
)

// ContentType of every rendered document.
const ContentType = "application/pdf"

// Clock supplies the letter date.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Renderer implements core.Renderer.
type Renderer struct {
	tmpl  Template
	clock Clock
}

// NewRenderer creates a Renderer. A nil clock means SystemClock.
//
// The template is not validated here: an incomplete template fails each row
// with a RenderError, which keeps the batch running and the table intact.
func NewRenderer(tmpl Template, clock Clock) *Renderer {
	if clock == nil {
		clock = SystemClock
	}
	return &Renderer{tmpl: tmpl, clock: clock}
}

// Filename is the attachment name for a row.
func Filename(row core.Row) string {
	return "salary_review_" + row.PayrollNumber() + ".pdf"
}

// Render produces the letter for row.
func (r *Renderer) Render(row core.Row) (core.Document, error) {
	if len(row) < core.SchemaWidth {
		return core.Document{}, &core.RenderError{
			PayrollNumber: row.PayrollNumber(),
			Err:           fmt.Errorf("%w: got %d, need %d", core.ErrShortRow, len(row), core.SchemaWidth),
		}
	}
	if err := r.tmpl.Validate(); err != nil {
		return core.Document{}, &core.RenderError{PayrollNumber: row.PayrollNumber(), Err: err}
	}

	now := r.clock.Now()
	content, err := r.draw(Layout(r.tmpl, row, now), row, now)
	if err != nil {
		return core.Document{}, &core.RenderError{PayrollNumber: row.PayrollNumber(), Err: err}
	}

	return core.Document{
		Filename:    Filename(row),
		ContentType: ContentType,
		Content:     content,
	}, nil
}

func (r *Renderer) draw(lines []Line, row core.Row, now time.Time) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(now)
	pdf.SetCreator("salaryreview", true)
	pdf.SetAuthor(r.tmpl.CompanyName, true)
	pdf.SetTitle("Salary Review "+row.PayrollNumber(), true)
	pdf.AddPage()

	// Core fonts are cp1252; this maps accented names and currency signs.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, l := range lines {
		style := ""
		if l.Bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, FontSize)
		pdf.Text(MarginX, PageHeight-l.Y, tr(strings.TrimRight(l.Text, " \t")))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Compose returns the email subject and body for row. The body template may
// name the employee with {name} or ${employee[0]}.
func (r *Renderer) Compose(row core.Row) (subject, body string) {
	body = strings.NewReplacer(
		"{name}", row.Name(),
		"${employee[0]}", row.Name(),
	).Replace(strings.ReplaceAll(r.tmpl.Body, `\n`, "\n"))

	closing := strings.TrimSpace(r.tmpl.Body2 + " " + r.tmpl.Year)
	if closing != "" {
		body += "\n" + closing
	}
	return r.tmpl.Subject, body
}

package letter

import (
	"time"

	"github.com/JonMunkholm/salaryreview/internal/core"
)

// Page geometry in PostScript points, origin at the bottom-left corner.
const (
	PageWidth  = 595.0
	PageHeight = 842.0

	MarginX   = 50.0
	TopY      = PageHeight - 50
	FooterY   = 50.0
	FontSize  = 12.0
	DateStyle = "02 January 2006"
)

// Cursor steps after each kind of line.
const (
	stepLine      = 20.0
	stepParagraph = 30.0
	stepClosing   = 50.0
)

// Line is one piece of text placed on the page.
type Line struct {
	Text string
	Y    float64 // baseline, measured up from the bottom edge
	Bold bool
}

// Layout returns the letter's lines top to bottom. It does no drawing and
// no validation, so the positions can be checked directly.
//
// Lines that run past the bottom of the page keep their (negative) position.
func Layout(t Template, row core.Row, date time.Time) []Line {
	currency := t.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	var lines []Line
	y := TopY
	emit := func(text string, bold bool, step float64) {
		lines = append(lines, Line{Text: text, Y: y, Bold: bold})
		y -= step
	}
	emitEach := func(field string, step float64) {
		for _, l := range splitLines(field) {
			emit(l, false, step)
		}
	}

	emit(t.CompanyName, true, stepLine)
	emit(date.Format(DateStyle), false, stepParagraph)

	emit("Name: "+row.Name(), false, stepLine)
	emit("Payroll Number: "+row.PayrollNumber(), false, stepLine)
	emit("Department: "+row.Department(), false, stepParagraph)

	emit("Dear "+row.Name()+",", false, stepLine)
	headline := t.Header
	if t.Year != "" {
		headline += " " + t.Year
	}
	emit(headline, true, stepParagraph)

	emitEach(t.Intro, stepParagraph)
	emitEach(t.Details, stepParagraph)

	emit("Basic Salary: "+currency+" "+core.FormatAmount(row.BasicSalary())+"/-", true, stepLine)
	emit("House / Utilities Allowance: "+currency+" "+core.FormatAmount(row.HousingAllowance())+"/-", true, stepParagraph)

	emitEach(t.Note, stepParagraph)
	emit(t.Tax, false, stepParagraph)
	emit(t.Conclusion, false, stepClosing)
	emitEach(t.Signature, stepLine)

	if t.Footer != "" {
		lines = append(lines, Line{Text: t.Footer, Y: FooterY})
	}
	return lines
}

package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is used when a new workbook is created without a sheet name.
const DefaultSheet = "Sheet1"

// errNoSheets is returned for a workbook with no worksheets at all.
var errNoSheets = errors.New("workbook has no sheets")

// workbookCodec reads and writes .xlsx tables with excelize.
type workbookCodec struct{}

// read loads sheet from path, or the first sheet when sheet is empty or
// absent.
func (workbookCodec) read(path, sheet string) (core.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	name, err := pickSheet(f, sheet)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.Dataset{}, fmt.Errorf("read sheet %q: %w", name, err)
	}

	return toDataset(rows), nil
}

// sheetFor returns want when the workbook at path has it, otherwise its
// first sheet. A missing or unreadable file yields want unchanged.
func (workbookCodec) sheetFor(path, want string) string {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return want
	}
	defer f.Close()
	name, err := pickSheet(f, want)
	if err != nil {
		return want
	}
	return name
}

// write replaces the rows of sheet in the workbook at path, creating the
// workbook or the sheet when missing. Other sheets are left as they are. The
// result goes to a temp file in the same directory and is renamed into place.
func (workbookCodec) write(path, sheet string, ds core.Dataset) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f, err := openOrCreate(path, sheet)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := clearSheet(f, sheet); err != nil {
		return err
	}

	if err := writeRow(f, sheet, 1, ds.Header); err != nil {
		return err
	}
	for i, row := range ds.Rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	return replaceFile(path, func(w *os.File) error {
		return f.Write(w)
	})
}

// openOrCreate opens the workbook at path and makes sure it has sheet. A
// missing file becomes a new workbook whose only sheet is sheet.
func openOrCreate(path, sheet string) (*excelize.File, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		f := excelize.NewFile()
		if sheet != DefaultSheet {
			if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("name sheet %q: %w", sheet, err)
			}
		}
		return f, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("add sheet %q: %w", sheet, err)
		}
	}
	return f, nil
}

// clearSheet removes every row of sheet, last first.
func clearSheet(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	for i := len(rows); i >= 1; i-- {
		if err := f.RemoveRow(sheet, i); err != nil {
			return fmt.Errorf("clear sheet %q row %d: %w", sheet, i, err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	for col, v := range cells {
		if v == "" {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("cell %d,%d: %w", col+1, rowNum, err)
		}
		if err := f.SetCellValue(sheet, ref, cellValue(v)); err != nil {
			return fmt.Errorf("set %s: %w", ref, err)
		}
	}
	return nil
}

// cellValue returns v as a float64 when it is a canonical decimal number so
// the written cell is numeric and reads back as the same text. Anything else,
// including values with leading zeros such as payroll numbers, stays a string.
func cellValue(v string) any {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return v
	}
	if strconv.FormatFloat(f, 'f', -1, 64) != v {
		return v
	}
	return f
}

func pickSheet(f *excelize.File, want string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", errNoSheets
	}
	if want != "" {
		for _, s := range sheets {
			if s == want {
				return s, nil
			}
		}
	}
	return sheets[0], nil
}

// toDataset turns raw sheet rows into a Dataset. The first row is the
// header. Blank rows are dropped and every data row is padded to the header
// width, because spreadsheets do not store trailing empty cells.
func toDataset(raw [][]string) core.Dataset {
	if len(raw) == 0 {
		return core.Dataset{}
	}

	header := core.Header(append([]string(nil), raw[0]...))
	rows := make([]core.Row, 0, len(raw)-1)
	for _, r := range raw[1:] {
		if isBlank(r) {
			continue
		}
		row := make(core.Row, max(len(header), len(r)))
		copy(row, r)
		rows = append(rows, row)
	}
	return core.Dataset{Header: header, Rows: rows}
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/salaryreview/internal/core"
)

// csvCodec reads and writes comma-separated tables. Sheet names are ignored.
// Cell bytes are kept exactly as read, so rows written back compare equal to
// the rows loaded even when the file is not valid UTF-8.
type csvCodec struct{}

func (csvCodec) read(path, _ string) (core.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(newBOMReader(f))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return core.Dataset{}, fmt.Errorf("parse csv %s: %w", filepath.Base(path), err)
	}
	return toDataset(records), nil
}

func (csvCodec) sheetFor(string, string) string { return "" }

// write replaces the file with ds. A byte order mark on the existing file is
// kept.
func (csvCodec) write(path, _ string, ds core.Dataset) error {
	bom, err := hasBOM(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	return replaceFile(path, func(f *os.File) error {
		if bom {
			if _, err := f.Write(utf8BOM); err != nil {
				return err
			}
		}
		w := csv.NewWriter(f)
		if len(ds.Header) > 0 {
			if err := w.Write(ds.Header); err != nil {
				return err
			}
		}
		for _, row := range ds.Rows {
			if err := w.Write(row); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}
